package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	toggleFlagTypeName          = "bool"
	toggleFlagTrueLiteral       = "true"
	toggleFlagAcceptedValues    = "true, false, yes, no, on, off, 1, 0"
	toggleFlagInvalidValueLabel = "invalid boolean value"
	longFlagPrefix              = "--"
	flagValueSeparator          = "="
)

var toggleFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// toggleFlagValue is a boolean flag value that also accepts yes/no and on/off.
type toggleFlagValue struct {
	target   *bool
	flagName string
}

func (value *toggleFlagValue) Set(input string) error {
	if value == nil || value.target == nil {
		return fmt.Errorf("%s %q", toggleFlagInvalidValueLabel, input)
	}
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = toggleFlagTrueLiteral
	}
	parsed, known := toggleFlagLiterals[normalized]
	if !known {
		return fmt.Errorf("%s %q for --%s; accepted values: %s", toggleFlagInvalidValueLabel, input, value.flagName, toggleFlagAcceptedValues)
	}
	*value.target = parsed
	return nil
}

func (value *toggleFlagValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *toggleFlagValue) Type() string {
	return toggleFlagTypeName
}

// registerToggleFlag adds a boolean flag that can be given bare (--copy),
// with an attached literal (--copy=no) or with a detached literal (--copy no)
// once the arguments went through normalizeToggleArguments.
func registerToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	flagSet.VarP(&toggleFlagValue{target: target, flagName: name}, name, shorthand, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = strconv.FormatBool(*target)
		lookup.NoOptDefVal = toggleFlagTrueLiteral
	}
}

// normalizeToggleArguments rewrites "--flag literal" into "--flag=literal" for
// toggle flags so that a detached boolean literal is not taken as a scan root.
func normalizeToggleArguments(command *cobra.Command, arguments []string) []string {
	if command == nil || len(arguments) == 0 {
		return arguments
	}
	toggleNames := map[string]struct{}{}
	collectToggleFlagNames(command, toggleNames)
	if len(toggleNames) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		currentArgument := arguments[index]
		if currentArgument == longFlagPrefix {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if strings.HasPrefix(currentArgument, longFlagPrefix) && !strings.Contains(currentArgument, flagValueSeparator) && index+1 < len(arguments) {
			flagName := strings.TrimPrefix(currentArgument, longFlagPrefix)
			if _, isToggle := toggleNames[flagName]; isToggle {
				literal := strings.ToLower(strings.TrimSpace(arguments[index+1]))
				if _, known := toggleFlagLiterals[literal]; known {
					normalized = append(normalized, longFlagPrefix+flagName+flagValueSeparator+arguments[index+1])
					index++
					continue
				}
			}
		}
		normalized = append(normalized, currentArgument)
	}
	return normalized
}

func collectToggleFlagNames(command *cobra.Command, target map[string]struct{}) {
	if command == nil || target == nil {
		return
	}
	visit := func(flagSet *pflag.FlagSet) {
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if _, isToggle := flag.Value.(*toggleFlagValue); isToggle {
				target[flag.Name] = struct{}{}
			}
		})
	}
	visit(command.PersistentFlags())
	visit(command.Flags())
	for _, child := range command.Commands() {
		collectToggleFlagNames(child, target)
	}
}

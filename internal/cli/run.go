package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/skryper/internal/config"
	"github.com/temirov/skryper/internal/logging"
	"github.com/temirov/skryper/internal/output"
	"github.com/temirov/skryper/internal/scanner"
	"github.com/temirov/skryper/internal/tokenizer"
	"github.com/temirov/skryper/internal/utils"
)

const (
	treeSeparator = "\n\n"

	startingScanFormat       = "Starting directory scan in %s"
	logsSavedFormat          = "Logs saved to %s"
	skippedEntriesFormat     = "Warning: %d unreadable entries skipped under %s"
	tokenCountFailedFormat   = "Warning: failed to count tokens for %s: %v"
	errorOutputMultipleRoots = "--output accepts a single root, got %d"
	errorCopyFormat          = "copy to clipboard: %w"
	errorTokenizerFormat     = "initialize tokenizer: %w"
	errorPrepareLogDirFormat = "prepare log directory %s: %w"
	errorLoadConfigFormat    = "load configuration: %w"
)

// scanFlags holds the raw values of the root command flags.
type scanFlags struct {
	rootPath   string
	outputPath string
	logging    bool
	verbose    bool
	exclusions []string
	inclusions []string
	ruleFile   string
	stdout     bool
	copy       bool
	tokens     bool
	model      string
	configPath string
}

// scanSettings is the configuration of one run after files and flags are merged.
type scanSettings struct {
	roots           []string
	outputPath      string
	outputDirectory string
	logging         bool
	verbose         bool
	stdout          bool
	copy            bool
	tokens          bool
	model           string
	scanOptions     scanner.Options
}

// rootScan pairs a scan result with the logger that recorded it.
type rootScan struct {
	result scanner.Result
	logger *logging.ApplicationLogger
}

func runScan(command *cobra.Command, env environment, flags scanFlags, arguments []string) error {
	settings, settingsErr := resolveSettings(command, env, flags, arguments)
	if settingsErr != nil {
		return settingsErr
	}

	ctx := command.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	console := zapcore.Lock(zapcore.AddSync(env.stderr))
	scans, scanErr := scanRoots(ctx, settings, console)
	if scanErr != nil {
		return scanErr
	}

	var counter tokenizer.Counter
	if settings.tokens {
		createdCounter, resolvedModel, counterErr := env.newCounter(tokenizer.Config{Model: settings.model})
		if counterErr != nil {
			return fmt.Errorf(errorTokenizerFormat, counterErr)
		}
		counter = createdCounter
		settings.model = resolvedModel
	}

	moment := env.now()
	renderedTrees := make([]string, 0, len(scans))
	for _, scan := range scans {
		rendered := output.Render(scan.result)
		renderedTrees = append(renderedTrees, rendered)
		if deliverErr := deliver(env, settings, scan, rendered, counter, moment); deliverErr != nil {
			return deliverErr
		}
	}

	if settings.copy {
		if copyErr := env.copier.Copy(strings.Join(renderedTrees, treeSeparator)); copyErr != nil {
			return fmt.Errorf(errorCopyFormat, copyErr)
		}
	}
	return nil
}

func resolveSettings(command *cobra.Command, env environment, flags scanFlags, arguments []string) (scanSettings, error) {
	workingDirectory, workingDirectoryErr := env.resolveWorkingDirectory()
	if workingDirectoryErr != nil {
		return scanSettings{}, workingDirectoryErr
	}
	applicationConfiguration, loadErr := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: flags.configPath,
	})
	if loadErr != nil {
		return scanSettings{}, fmt.Errorf(errorLoadConfigFormat, loadErr)
	}

	changed := command.Flags().Changed
	settings := scanSettings{
		logging: pickToggle(changed(loggingFlagName), flags.logging, applicationConfiguration.Logging.Enabled),
		verbose: pickToggle(changed(verboseFlagName), flags.verbose, applicationConfiguration.Logging.Verbose),
		stdout:  pickToggle(changed(stdoutFlagName), flags.stdout, applicationConfiguration.Output.Stdout),
		copy:    pickToggle(changed(copyFlagName), flags.copy, applicationConfiguration.Output.Copy),
		tokens:  pickToggle(changed(tokensFlagName), flags.tokens, applicationConfiguration.Tokens.Enabled),
		model:   applicationConfiguration.Tokens.Model,
		scanOptions: scanner.Options{
			BaseExclusions: utils.DeduplicatePatterns(append(append([]string{}, applicationConfiguration.Scan.Excluded...), flags.exclusions...)),
			InclusionRules: utils.DeduplicatePatterns(append(append([]string{}, applicationConfiguration.Scan.Include...), flags.inclusions...)),
			RuleFileName:   applicationConfiguration.Scan.RuleFile,
		},
	}
	if changed(modelFlagName) && strings.TrimSpace(flags.model) != "" {
		settings.model = flags.model
	}
	if changed(ruleFileFlagName) && strings.TrimSpace(flags.ruleFile) != "" {
		settings.scanOptions.RuleFileName = flags.ruleFile
	}
	if applicationConfiguration.Output.Directory != "" {
		settings.outputDirectory = resolveAgainst(workingDirectory, applicationConfiguration.Output.Directory)
	}

	var requestedRoots []string
	if strings.TrimSpace(flags.rootPath) != "" {
		requestedRoots = append(requestedRoots, flags.rootPath)
	}
	requestedRoots = append(requestedRoots, arguments...)
	if len(requestedRoots) == 0 {
		requestedRoots = []string{workingDirectory}
	}
	for _, requestedRoot := range requestedRoots {
		settings.roots = append(settings.roots, resolveAgainst(workingDirectory, requestedRoot))
	}

	if flags.outputPath != "" {
		if len(settings.roots) > 1 {
			return scanSettings{}, fmt.Errorf(errorOutputMultipleRoots, len(settings.roots))
		}
		settings.outputPath = resolveAgainst(workingDirectory, flags.outputPath)
	}
	return settings, nil
}

// scanRoots scans every root in its own goroutine. Results keep the order of the roots.
func scanRoots(ctx context.Context, settings scanSettings, console io.Writer) ([]rootScan, error) {
	scans := make([]rootScan, len(settings.roots))
	group, groupContext := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for index, rootPath := range settings.roots {
		group.Go(func() error {
			applicationLogger := logging.NewApplicationLogger(logging.ApplicationLoggerOptions{
				Verbose: settings.verbose,
				Console: console,
			})
			applicationLogger.Info(fmt.Sprintf(startingScanFormat, rootPath))
			options := settings.scanOptions
			options.Logger = applicationLogger.Sink()
			result, buildErr := scanner.NewTreeBuilder(options).Build(groupContext, rootPath)
			if buildErr != nil {
				return buildErr
			}
			scans[index] = rootScan{result: result, logger: applicationLogger}
			return nil
		})
	}
	if waitErr := group.Wait(); waitErr != nil {
		return nil, waitErr
	}
	return scans, nil
}

// deliver prints or saves one rendered tree, then reports its summary and log.
func deliver(env environment, settings scanSettings, scan rootScan, rendered string, counter tokenizer.Counter, moment time.Time) error {
	result := scan.result
	targetDirectory := settings.targetDirectory(result)

	if settings.stdout {
		if writeErr := output.WriteStructure(env.stdout, result); writeErr != nil {
			return writeErr
		}
	} else {
		destinationPath := settings.outputPath
		if destinationPath == "" {
			destinationPath = filepath.Join(targetDirectory, output.StructureFileName(moment, result.RootName))
		}
		if saveErr := output.SaveStructure(destinationPath, result); saveErr != nil {
			return saveErr
		}
		savedMessage := output.FormatSavedMessage(destinationPath)
		scan.logger.Info(savedMessage)
		env.printStatus(savedMessage)
	}

	if len(result.Warnings) > 0 {
		env.printWarning(fmt.Sprintf(skippedEntriesFormat, len(result.Warnings), result.RootPath))
	}

	if counter != nil {
		summary := output.Summarize(result)
		countResult, countErr := tokenizer.CountText(counter, rendered)
		if countErr != nil {
			env.printWarning(fmt.Sprintf(tokenCountFailedFormat, result.RootPath, countErr))
		} else if countResult.Counted {
			summary.Tokens = countResult.Tokens
			summary.Model = settings.model
		}
		fmt.Fprintln(env.stdout, output.FormatSummaryLine(summary))
	}

	if settings.logging {
		if mkdirErr := os.MkdirAll(targetDirectory, 0o755); mkdirErr != nil {
			return fmt.Errorf(errorPrepareLogDirFormat, targetDirectory, mkdirErr)
		}
		logPath := filepath.Join(targetDirectory, output.LogFileName(moment, result.RootName))
		scan.logger.Info(fmt.Sprintf(logsSavedFormat, logPath))
		if saveErr := scan.logger.SaveCaptured(logPath); saveErr != nil {
			return saveErr
		}
	}
	_ = scan.logger.Sync()
	return nil
}

// targetDirectory is where the structure and log files of result are placed.
func (settings scanSettings) targetDirectory(result scanner.Result) string {
	switch {
	case settings.outputPath != "":
		return filepath.Dir(settings.outputPath)
	case settings.outputDirectory != "":
		return settings.outputDirectory
	default:
		return result.RootPath
	}
}

func (env environment) printStatus(message string) {
	env.colorizer(color.FgGreen).Fprintln(env.stdout, message)
}

func (env environment) printWarning(message string) {
	env.colorizer(color.FgYellow).Fprintln(env.stderr, message)
}

func (env environment) colorizer(attribute color.Attribute) *color.Color {
	colorizer := color.New(attribute)
	if env.colorOutput {
		colorizer.EnableColor()
	} else {
		colorizer.DisableColor()
	}
	return colorizer
}

func pickToggle(flagChanged bool, flagValue bool, configured *bool) bool {
	if flagChanged {
		return flagValue
	}
	return config.BoolValue(configured)
}

func resolveAgainst(workingDirectory string, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(workingDirectory, path)
}

func isTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// IsInvalidRoot reports whether err was caused by a scan root that is missing or not a directory.
func IsInvalidRoot(err error) bool {
	var rootError *scanner.InvalidRootError
	return errors.As(err, &rootError)
}

// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/temirov/skryper/internal/services/clipboard"
	"github.com/temirov/skryper/internal/tokenizer"
	"github.com/temirov/skryper/internal/utils"
)

const (
	rootUse              = "skryper [paths...]"
	rootShortDescription = "render a directory tree that honours .gitignore files"
	rootLongDescription  = `skryper walks one or more directories and writes their structure as a
box-drawing tree. Every .gitignore found on the way prunes its own subtree;
__pycache__, .git and .mypy_cache are always left out and .github is always kept.
The tree is saved to <timestamp>_<directory>_structure.txt unless --stdout is given.`
	rootUsageExample = `  # Save the structure of the working directory
  skryper

  # Print two trees and copy them to the clipboard
  skryper --stdout --copy ./api ./web

  # Keep a log of every ignore decision
  skryper -l --verbose --root ../project`

	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write the default configuration to ` + utils.LocalConfigFileName + ` in the working directory,
or to ~/` + utils.GlobalConfigDirectoryName + `/` + utils.ConfigFileName + ` with --global.`

	rootFlagName        = "root"
	outputFlagName      = "output"
	outputFlagShorthand = "o"
	loggingFlagName     = "logging"
	loggingFlagShort    = "l"
	verboseFlagName     = "verbose"
	excludeFlagName     = "exclude"
	excludeFlagShort    = "e"
	includeFlagName     = "include"
	includeFlagShort    = "i"
	ruleFileFlagName    = "rule-file"
	stdoutFlagName      = "stdout"
	copyFlagName        = "copy"
	tokensFlagName      = "tokens"
	modelFlagName       = "model"
	configFlagName      = "config"
	versionFlagName     = "version"
	globalFlagName      = "global"
	forceFlagName       = "force"

	rootFlagDescription     = "directory to scan, scanned before positional paths"
	outputFlagDescription   = "file to write the structure to (single root only)"
	loggingFlagDescription  = "save the run log next to the structure file"
	verboseFlagDescription  = "log every rule check"
	excludeFlagDescription  = "pattern excluded everywhere, even from inclusion rules"
	includeFlagDescription  = "pattern shown even when a .gitignore ignores it"
	ruleFileFlagDescription = "name of the per-directory rule file"
	stdoutFlagDescription   = "print the structure instead of saving it"
	copyFlagDescription     = "copy the structure to the clipboard"
	tokensFlagDescription   = "report the token count of the structure"
	modelFlagDescription    = "tokenizer model used with --tokens"
	configFlagDescription   = "configuration file used instead of " + utils.LocalConfigFileName
	versionFlagDescription  = "display application version"
	globalFlagDescription   = "write the global configuration"
	forceFlagDescription    = "overwrite an existing configuration file"

	versionTemplate             = "skryper version: %s\n"
	configurationWrittenFormat  = "Configuration written to %s\n"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
)

// environment carries the process resources a command run depends on.
type environment struct {
	stdout           io.Writer
	stderr           io.Writer
	now              func() time.Time
	copier           clipboard.Copier
	newCounter       func(tokenizer.Config) (tokenizer.Counter, string, error)
	workingDirectory string
	colorOutput      bool
}

func defaultEnvironment() environment {
	return environment{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		now:         time.Now,
		copier:      clipboard.NewService(),
		newCounter:  tokenizer.NewCounter,
		colorOutput: isTerminal(os.Stdout),
	}
}

func (env environment) resolveWorkingDirectory() (string, error) {
	if env.workingDirectory != "" {
		return env.workingDirectory, nil
	}
	workingDirectory, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf(workingDirectoryErrorFormat, err)
	}
	return workingDirectory, nil
}

// Execute runs the skryper application.
func Execute(ctx context.Context) error {
	rootCommand := createRootCommand(defaultEnvironment())
	rootCommand.SetArgs(normalizeToggleArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command.
func createRootCommand(env environment) *cobra.Command {
	var flags scanFlags
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				fmt.Fprintf(env.stdout, versionTemplate, utils.GetApplicationVersion())
				return nil
			}
			return runScan(command, env, flags, arguments)
		},
	}
	rootCommand.SetOut(env.stdout)
	rootCommand.SetErr(env.stderr)

	flagSet := rootCommand.Flags()
	flagSet.StringVar(&flags.rootPath, rootFlagName, "", rootFlagDescription)
	flagSet.StringVarP(&flags.outputPath, outputFlagName, outputFlagShorthand, "", outputFlagDescription)
	registerToggleFlag(flagSet, &flags.logging, loggingFlagName, loggingFlagShort, loggingFlagDescription)
	registerToggleFlag(flagSet, &flags.verbose, verboseFlagName, "", verboseFlagDescription)
	flagSet.StringArrayVarP(&flags.exclusions, excludeFlagName, excludeFlagShort, nil, excludeFlagDescription)
	flagSet.StringArrayVarP(&flags.inclusions, includeFlagName, includeFlagShort, nil, includeFlagDescription)
	flagSet.StringVar(&flags.ruleFile, ruleFileFlagName, "", ruleFileFlagDescription)
	registerToggleFlag(flagSet, &flags.stdout, stdoutFlagName, "", stdoutFlagDescription)
	registerToggleFlag(flagSet, &flags.copy, copyFlagName, "", copyFlagDescription)
	registerToggleFlag(flagSet, &flags.tokens, tokensFlagName, "", tokensFlagDescription)
	flagSet.StringVar(&flags.model, modelFlagName, "", modelFlagDescription)
	flagSet.StringVar(&flags.configPath, configFlagName, "", configFlagDescription)
	flagSet.BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)

	rootCommand.AddCommand(createInitCommand(env))
	return rootCommand
}

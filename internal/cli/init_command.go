package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/skryper/internal/config"
)

func createInitCommand(env environment) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			workingDirectory, err := env.resolveWorkingDirectory()
			if err != nil {
				return err
			}
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			destinationPath, err := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: workingDirectory,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(env.stdout, configurationWrittenFormat, destinationPath)
			return nil
		},
	}
	registerToggleFlag(initCommand.Flags(), &global, globalFlagName, "", globalFlagDescription)
	registerToggleFlag(initCommand.Flags(), &force, forceFlagName, "", forceFlagDescription)
	return initCommand
}

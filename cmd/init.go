package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const initLongDescription = `Create a fuzzplan.yaml in the current working directory populated with the
current CLI defaults so it can be edited manually.

The file controls:
  output            directory where analysis reports are saved
  analyze.parallel  number of functions classified concurrently
  analyze.impls     extra trait impl table merged into every surface
  solve.limit       candidate solutions tried per generic function (0 = all)
  solve.candidates  types tried for generic parameters, e.g. [u8, i32, String]
  cache.file        trait query memo reused across runs
  log.*             log file, level and rotation

Every key can also be set through a FUZZPLAN_ environment variable, for
example FUZZPLAN_SOLVE_LIMIT=500.`

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a default fuzzplan.yaml configuration file",
		Long:  initLongDescription,
		RunE: func(_ *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			err := viper.SafeWriteConfigAs(targetPath)
			if err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
}

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fuzzplan.dev/pkg/fuzzplan/internal/domain"
	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View the most recent fuzz plan",
		Long:  "View the most recently saved fuzz plan from a reports directory.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			reportsPath := m.FilePath(viper.GetString(outputFlagName))
			return workflow.View(commandContext(cmd), domain.ViewArgs{Reports: reportsPath})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

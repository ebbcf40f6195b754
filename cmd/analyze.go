package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fuzzplan.dev/pkg/fuzzplan/internal/adapter"
	"fuzzplan.dev/pkg/fuzzplan/internal/domain"
	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

var analyzeParallelFlag int
var analyzeImplsFlag string
var solveLimitFlag int
var candidateFlags []string
var cacheFileFlag string
var noCacheFlag bool

// analyzeCmd represents the analyze command.
var analyzeCmd = newAnalyzeCmd()

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <surface>",
		Short: "Plan fuzz inputs for a library surface",
		Long:  analyzeLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := adapter.ParseCandidates(viper.GetStringSlice(solveCandidatesKey))
			if err != nil {
				return fmt.Errorf("invalid %s: %w", solveCandidatesKey, err)
			}

			cache := m.FilePath(viper.GetString(cacheFileKey))
			if noCacheFlag {
				cache = ""
			}

			return workflow.Analyze(commandContext(cmd), domain.AnalyzeArgs{
				Surface:    m.FilePath(args[0]),
				Impls:      m.FilePath(viper.GetString(analyzeImplsKey)),
				Reports:    m.FilePath(viper.GetString(outputFlagName)),
				Cache:      cache,
				Parallel:   viper.GetInt(analyzeParallelKey),
				SolveLimit: viper.GetInt(solveLimitKey),
				Candidates: candidates,
			})
		},
	}

	configureAnalyzeFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func configureAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&analyzeParallelFlag, parallelFlagName, "p", viper.GetInt(analyzeParallelKey), "number of parallel classification workers")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), analyzeParallelKey)

	cmd.Flags().StringVar(&analyzeImplsFlag, implsFlagName, viper.GetString(analyzeImplsKey), "extra trait impl table (YAML or TOML)")
	bindFlagToConfig(cmd.Flags().Lookup(implsFlagName), analyzeImplsKey)

	cmd.Flags().IntVarP(&solveLimitFlag, limitFlagName, "l", viper.GetInt(solveLimitKey), "maximum candidate solutions tried per function (0 for no limit)")
	bindFlagToConfig(cmd.Flags().Lookup(limitFlagName), solveLimitKey)

	cmd.Flags().StringArrayVarP(&candidateFlags, candidateFlagName, "c", viper.GetStringSlice(solveCandidatesKey), "candidate type for generic parameters (can be repeated)")
	bindFlagToConfig(cmd.Flags().Lookup(candidateFlagName), solveCandidatesKey)

	cmd.Flags().StringVar(&cacheFileFlag, cacheFlagName, viper.GetString(cacheFileKey), "trait query memo file")
	bindFlagToConfig(cmd.Flags().Lookup(cacheFlagName), cacheFileKey)

	cmd.Flags().BoolVar(&noCacheFlag, noCacheFlagName, false, "do not read or write the trait query memo")
}

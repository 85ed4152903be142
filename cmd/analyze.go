package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/funnel-cli/internal/model"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse all registry funnels with insights",
	Long: `Builds every registry funnel (or the ones named with --funnels), then reports overall
conversion metrics, bottlenecks, transition times, segment performance and
optimisation recommendations.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		names, _ := cmd.Flags().GetStringSlice("funnels")
		return runCommand(cmd, model.RunKindAnalyze, analysisParams{Funnels: names})
	},
}

func init() {
	analyzeCmd.Flags().StringSlice("funnels", nil, "comma-separated registry funnel names (default all)")
	addOutputFlags(analyzeCmd)

	rootCmd.AddCommand(analyzeCmd)
}

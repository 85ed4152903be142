package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/funnel-cli/internal/model"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Describe an event batch",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCommand(cmd, model.RunKindSummary, analysisParams{})
	},
}

func init() {
	addOutputFlags(summaryCmd)
	rootCmd.AddCommand(summaryCmd)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/funnel-cli/internal/model"
)

var journeysCmd = &cobra.Command{
	Use:   "journeys",
	Short: "List each user's journey through a funnel",
	RunE: func(cmd *cobra.Command, _ []string) error {
		steps, _ := cmd.Flags().GetStringSlice("steps")
		return runCommand(cmd, model.RunKindJourneys, analysisParams{Steps: steps})
	},
}

func init() {
	journeysCmd.Flags().StringSlice("steps", nil, "comma-separated ordered step event names (default engine.default_funnel)")
	addOutputFlags(journeysCmd)

	rootCmd.AddCommand(journeysCmd)
}

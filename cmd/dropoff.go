package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/funnel-cli/internal/model"
)

var dropoffCmd = &cobra.Command{
	Use:   "dropoff",
	Short: "Find where users leave a funnel",
	RunE: func(cmd *cobra.Command, _ []string) error {
		steps, _ := cmd.Flags().GetStringSlice("steps")
		return runCommand(cmd, model.RunKindDropOff, analysisParams{Steps: steps})
	},
}

func init() {
	dropoffCmd.Flags().StringSlice("steps", nil, "comma-separated ordered step event names (default engine.default_funnel)")
	addOutputFlags(dropoffCmd)

	rootCmd.AddCommand(dropoffCmd)
}

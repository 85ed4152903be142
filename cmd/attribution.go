package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/funnel-cli/internal/model"
)

var attributionCmd = &cobra.Command{
	Use:   "attribution",
	Short: "Credit conversions to the events that preceded them",
	Long: `For every conversion event, credits the events in the look-back window before it
under first-touch, last-touch and linear multi-touch models.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		window, _ := cmd.Flags().GetDuration("window")
		var p analysisParams
		if window != 0 {
			p.Window = window.String()
		}
		return runCommand(cmd, model.RunKindAttribution, p)
	},
}

func init() {
	attributionCmd.Flags().Duration("window", 0, "look-back window (default engine.attribution_window_days)")
	addOutputFlags(attributionCmd)

	rootCmd.AddCommand(attributionCmd)
}

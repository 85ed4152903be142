package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/funnel-cli/internal/model"
)

var funnelCmd = &cobra.Command{
	Use:   "funnel",
	Short: "Build one conversion funnel",
	Long: `Matches every user's journey through an ordered list of steps and reports per-step
users, conversion and drop-off rates, transition times and the bottleneck step.

Examples:
  # Predefined funnel from the registry
  funnel-cli funnel -i events.csv --funnel checkout_funnel

  # Ad-hoc steps with a 2 hour window between steps
  funnel-cli funnel -i events.csv --steps page_view,sign_up,purchase --window 2h --save`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		steps, _ := cmd.Flags().GetStringSlice("steps")
		name, _ := cmd.Flags().GetString("funnel")
		window, _ := cmd.Flags().GetDuration("window")

		p := analysisParams{Steps: steps, Name: name}
		if window != 0 {
			p.Window = window.String()
		}
		return runCommand(cmd, model.RunKindFunnel, p)
	},
}

func init() {
	f := funnelCmd.Flags()
	f.StringSlice("steps", nil, "comma-separated ordered step event names")
	f.String("funnel", "", "registry funnel name, or the name given to --steps (default engine.default_funnel)")
	f.Duration("window", 0, "max time between consecutive steps (default engine.time_window_hours)")
	addOutputFlags(funnelCmd)

	rootCmd.AddCommand(funnelCmd)
}

package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/funnel-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "funnel-cli",
	Short: "Conversion funnel and attribution analysis",
	Long: `Reads event exports (CSV, JSON, XLSX, SQLite, PostgreSQL or ClickHouse), matches
each user's journey through ordered funnel steps under a time window, and reports
step conversion, drop-off, bottlenecks, segment performance and first/last/multi-touch
attribution.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c
		applyFlagOverrides(cmd, cfg)

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("input", "i", "", "event source path or URL (overrides source.path)")
	pf.String("source", "", "event source driver: file, sqlite, postgres, clickhouse (overrides source.driver)")
	pf.String("table", "", "source table for database drivers (overrides source.table)")
	pf.String("funnels-file", "", "YAML or JSON funnel registry (overrides engine.funnels_file)")
	pf.Int("workers", 0, "matcher workers (overrides engine.workers)")
}

// applyFlagOverrides copies explicitly set persistent flags onto c.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		c.Source.Path, _ = flags.GetString("input")
	}
	if flags.Changed("source") {
		c.Source.Driver, _ = flags.GetString("source")
	}
	if flags.Changed("table") {
		c.Source.Table, _ = flags.GetString("table")
	}
	if flags.Changed("funnels-file") {
		c.Engine.FunnelsFile, _ = flags.GetString("funnels-file")
	}
	if flags.Changed("workers") {
		c.Engine.Workers, _ = flags.GetInt("workers")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

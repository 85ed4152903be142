package main

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/sells-group/funnel-cli/internal/config"
	"github.com/sells-group/funnel-cli/internal/funnel"
	"github.com/sells-group/funnel-cli/internal/ingest"
	"github.com/sells-group/funnel-cli/internal/model"
	"github.com/sells-group/funnel-cli/internal/registry"
	"github.com/sells-group/funnel-cli/internal/store"
)

// newEngine builds the funnel engine from the engine settings and the
// funnel registry.
func newEngine(ec config.EngineConfig) (*funnel.Engine, error) {
	defs, events, err := registry.Resolve(ec.FunnelsFile, ec.ConversionEvents)
	if err != nil {
		return nil, err
	}
	defaultFunnel := ec.DefaultFunnel
	if defaultFunnel != "" && !slices.ContainsFunc(defs, func(d model.FunnelDefinition) bool { return d.Name == defaultFunnel }) {
		zap.L().Debug("default funnel not in registry, commands need explicit steps",
			zap.String("default_funnel", defaultFunnel),
			zap.String("funnels_file", ec.FunnelsFile),
		)
		defaultFunnel = ""
	}
	return funnel.New(funnel.Options{
		Funnels:           defs,
		ConversionEvents:  events,
		TimeWindow:        ec.TimeWindow(),
		AttributionWindow: ec.AttributionWindow(),
		DefaultFunnel:     defaultFunnel,
		Dimensions:        ec.Dimensions,
		Workers:           ec.Workers,
		BatchSize:         ec.BatchSize,
	})
}

// loadEvents reads the configured event source.
func loadEvents(ctx context.Context, c *config.Config) (*ingest.Batch, error) {
	b, err := ingest.Load(ctx, c.Source, c.Engine.Dimensions)
	if err != nil {
		return nil, err
	}
	for _, w := range b.Warnings() {
		zap.L().Warn("input rows skipped", zap.String("code", string(w.Code)), zap.String("detail", w.Message))
	}
	if b.Stats.BadTimestamps > 0 {
		zap.L().Warn("events with unparseable timestamps; their users will be excluded",
			zap.Int("events", b.Stats.BadTimestamps),
		)
	}
	return b, nil
}

// sourceLabel names the event source in saved runs.
func sourceLabel(c *config.Config) string {
	switch c.Source.Driver {
	case "", ingest.DriverFile:
		return c.Source.Path
	default:
		return c.Source.Driver + ":" + c.Source.Table
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}

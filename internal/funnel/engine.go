// Package funnel implements the conversion funnel and attribution engine:
// greedy per-user journey matching under a time window, step aggregation,
// bottleneck detection, drop-off analysis and first/last/multi-touch
// attribution over an in-memory event batch.
package funnel

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/funnel-cli/internal/model"
)

// Default batching parameters used when Options leaves them zero.
const (
	DefaultBatchSize = 5000
	dropOffFunnel    = "drop_off_analysis"
)

// Options configures an Engine. The Engine keeps its own copy; later
// changes to the slices passed in have no effect.
type Options struct {
	Funnels           []model.FunnelDefinition
	ConversionEvents  []string
	TimeWindow        time.Duration
	AttributionWindow time.Duration
	DefaultFunnel     string
	Dimensions        []string
	Workers           int
	BatchSize         int
}

// Engine evaluates funnels and attribution over event batches. It holds
// only immutable configuration and is safe for concurrent use.
type Engine struct {
	opts        Options
	conversions map[string]struct{}
}

// New validates opts and builds an Engine.
func New(opts Options) (*Engine, error) {
	if opts.TimeWindow <= 0 {
		return nil, model.NewConfigError("time_window", "must be positive")
	}
	if opts.AttributionWindow <= 0 {
		return nil, model.NewConfigError("attribution_window", "must be positive")
	}
	if opts.Workers < 0 {
		return nil, model.NewConfigError("workers", "must not be negative")
	}
	if opts.BatchSize < 0 {
		return nil, model.NewConfigError("batch_size", "must not be negative")
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = DefaultBatchSize
	}

	funnels := make([]model.FunnelDefinition, 0, len(opts.Funnels))
	for _, def := range opts.Funnels {
		if err := def.Validate(); err != nil {
			return nil, model.NewConfigError("funnels", fmt.Sprintf("%s: %v", def.Name, err))
		}
		funnels = append(funnels, model.FunnelDefinition{Name: def.Name, Steps: slices.Clone(def.Steps)})
	}
	opts.Funnels = funnels
	opts.ConversionEvents = slices.Clone(opts.ConversionEvents)
	opts.Dimensions = slices.Clone(opts.Dimensions)

	e := &Engine{opts: opts, conversions: make(map[string]struct{}, len(opts.ConversionEvents))}
	for _, name := range opts.ConversionEvents {
		e.conversions[name] = struct{}{}
	}
	if opts.DefaultFunnel != "" {
		if _, err := e.Definition(opts.DefaultFunnel); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Options returns a copy of the engine's configuration.
func (e *Engine) Options() Options {
	o := e.opts
	o.Funnels = slices.Clone(o.Funnels)
	o.ConversionEvents = slices.Clone(o.ConversionEvents)
	o.Dimensions = slices.Clone(o.Dimensions)
	return o
}

// FunnelNames lists configured funnels in definition order.
func (e *Engine) FunnelNames() []string {
	names := make([]string, len(e.opts.Funnels))
	for i, f := range e.opts.Funnels {
		names[i] = f.Name
	}
	return names
}

// Definition looks up a configured funnel by name.
func (e *Engine) Definition(name string) (model.FunnelDefinition, error) {
	for _, f := range e.opts.Funnels {
		if f.Name == name {
			return model.FunnelDefinition{Name: f.Name, Steps: slices.Clone(f.Steps)}, nil
		}
	}
	return model.FunnelDefinition{}, model.NewConfigError("funnel", fmt.Sprintf("unknown funnel %q", name))
}

// resolveSteps falls back to the default funnel when steps is empty.
func (e *Engine) resolveSteps(steps []string) ([]string, error) {
	if len(steps) == 0 {
		if e.opts.DefaultFunnel == "" {
			return nil, model.NewConfigError("funnel_steps", "no funnel steps supplied and no default funnel configured")
		}
		def, err := e.Definition(e.opts.DefaultFunnel)
		if err != nil {
			return nil, err
		}
		return def.Steps, nil
	}
	if err := (model.FunnelDefinition{Steps: steps}).Validate(); err != nil {
		return nil, err
	}
	return steps, nil
}

func resolveWindow(window, fallback time.Duration, field string) (time.Duration, error) {
	switch {
	case window < 0:
		return 0, model.NewConfigError(field, "must not be negative")
	case window == 0:
		return fallback, nil
	default:
		return window, nil
	}
}

// BuildConversionFunnel matches every user's journey through steps and
// aggregates the result. A zero window uses the configured default.
func (e *Engine) BuildConversionFunnel(ctx context.Context, events []model.Event, steps []string, name string, window time.Duration) (*model.ConversionFunnel, error) {
	if err := (model.FunnelDefinition{Name: name, Steps: steps}).Validate(); err != nil {
		return nil, err
	}
	window, err := resolveWindow(window, e.opts.TimeWindow, "time_window")
	if err != nil {
		return nil, err
	}
	f, _, err := e.buildFunnel(ctx, newBatch(events), steps, name, window)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (e *Engine) buildFunnel(ctx context.Context, b *batch, steps []string, name string, window time.Duration) (model.ConversionFunnel, []model.UserJourney, error) {
	journeys, warnings, err := e.matchAll(ctx, b, steps, window)
	if err != nil {
		return model.ConversionFunnel{}, nil, err
	}

	f := Aggregate(name, steps, journeys)
	f.Warnings = append(batchWarnings(b), warnings...)
	switch {
	case b.empty():
		zap.L().Warn("funnel: empty event batch", zap.String("funnel", name))
		f.Warnings = append(f.Warnings, model.Warning{Code: model.WarningEmptyInput, Message: "no events to analyse"})
	case len(journeys) == 0:
		f.Warnings = append(f.Warnings, model.Warning{
			Code:    model.WarningNoMatchingEvents,
			Message: fmt.Sprintf("no user fired the first step %q", steps[0]),
		})
	}

	zap.L().Info("funnel: built funnel",
		zap.String("funnel", name),
		zap.Int("entered", f.TotalUsersEntered),
		zap.Int("converted", f.TotalUsersConverted),
		zap.Float64("overall_rate", f.OverallConversionRate),
	)
	return f, journeys, nil
}

type matchChunk struct {
	journeys []model.UserJourney
	warnings []model.Warning
}

// matchAll runs MatchJourney for every user, excluding users whose records
// cannot be matched. Journeys come back ordered by user id.
func (e *Engine) matchAll(ctx context.Context, b *batch, steps []string, window time.Duration) ([]model.UserJourney, []model.Warning, error) {
	chunks, err := forEachChunk(ctx, b, e.opts.BatchSize, e.opts.Workers, func(lo, hi int) matchChunk {
		var c matchChunk
		for u := lo; u < hi; u++ {
			span := b.users[u]
			j, err := MatchJourney(span.UserID, b.userEvents(u), steps, window)
			if err != nil {
				zap.L().Warn("funnel: excluding user from funnel",
					zap.String("user_id", span.UserID),
					zap.Error(err),
				)
				c.warnings = append(c.warnings, excludedUser(span.UserID, err))
				continue
			}
			if j != nil {
				c.journeys = append(c.journeys, *j)
			}
		}
		return c
	})
	if err != nil {
		return nil, nil, err
	}

	journeys := []model.UserJourney{}
	var warnings []model.Warning
	for _, c := range chunks {
		journeys = append(journeys, c.journeys...)
		warnings = append(warnings, c.warnings...)
	}
	return journeys, warnings, nil
}

// CalculateConversionRates builds every definition (the configured funnels
// when defs is nil) with the default window and analyses the results.
// Funnels that no user entered are left out.
func (e *Engine) CalculateConversionRates(ctx context.Context, events []model.Event, defs []model.FunnelDefinition) (*model.ConversionAnalysis, error) {
	if defs == nil {
		defs = e.opts.Funnels
	}
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, model.NewConfigError("funnels", fmt.Sprintf("%s: %v", def.Name, err))
		}
	}

	b := newBatch(events)
	a := &model.ConversionAnalysis{Funnels: []model.ConversionFunnel{}}
	a.Warnings = batchWarnings(b)
	if b.empty() {
		zap.L().Warn("funnel: empty event batch, skipping conversion rates")
		a.Warnings = append(a.Warnings, model.Warning{Code: model.WarningEmptyInput, Message: "no events to analyse"})
	}

	for _, def := range defs {
		if b.empty() {
			break
		}
		f, _, err := e.buildFunnel(ctx, b, def.Steps, def.Name, e.opts.TimeWindow)
		if err != nil {
			return nil, err
		}
		// Batch-level warnings are reported once on the analysis.
		f.Warnings = slices.DeleteFunc(f.Warnings, func(w model.Warning) bool {
			return w.Code == model.WarningDroppedRows
		})
		if len(f.Steps) == 0 {
			a.Warnings = append(a.Warnings, f.Warnings...)
			continue
		}
		a.Funnels = append(a.Funnels, f)
	}

	a.ConversionMetrics = CalculateMetrics(events, e.opts.ConversionEvents, a.Funnels)
	a.BottleneckAnalysis = AnalyzeBottlenecks(a.Funnels)
	a.TimeAnalysis = AnalyzeTimes(a.Funnels)
	a.SegmentAnalysis = AnalyzeSegments(events, e.opts.Dimensions, e.opts.ConversionEvents)
	return a, nil
}

// IdentifyDropOffPoints builds a funnel over steps (the default funnel when
// empty) and reports where users are lost.
func (e *Engine) IdentifyDropOffPoints(ctx context.Context, events []model.Event, steps []string) (*model.DropOffAnalysis, error) {
	steps, err := e.resolveSteps(steps)
	if err != nil {
		return nil, err
	}
	f, _, err := e.buildFunnel(ctx, newBatch(events), steps, dropOffFunnel, e.opts.TimeWindow)
	if err != nil {
		return nil, err
	}
	a := DropOffs(f)
	return &a, nil
}

// CreateUserConversionJourneys returns one journey per user who fired the
// first step, ordered by user id.
func (e *Engine) CreateUserConversionJourneys(ctx context.Context, events []model.Event, steps []string) (*model.JourneyReport, error) {
	steps, err := e.resolveSteps(steps)
	if err != nil {
		return nil, err
	}
	b := newBatch(events)
	journeys, warnings, err := e.matchAll(ctx, b, steps, e.opts.TimeWindow)
	if err != nil {
		return nil, err
	}
	return &model.JourneyReport{
		Steps:    slices.Clone(steps),
		Journeys: journeys,
		Warnings: append(batchWarnings(b), warnings...),
	}, nil
}

// AnalyzeConversionAttribution credits the events preceding every
// conversion event within window. A zero window uses the configured default.
func (e *Engine) AnalyzeConversionAttribution(ctx context.Context, events []model.Event, window time.Duration) (*model.AttributionResult, error) {
	window, err := resolveWindow(window, e.opts.AttributionWindow, "attribution_window")
	if err != nil {
		return nil, err
	}

	b := newBatch(events)
	if b.empty() {
		zap.L().Warn("funnel: empty event batch, skipping attribution")
		res := model.NewAttributionResult()
		res.Warnings = append(batchWarnings(b), model.Warning{Code: model.WarningEmptyInput, Message: "no events to analyse"})
		return res, nil
	}

	tallies, err := forEachChunk(ctx, b, e.opts.BatchSize, e.opts.Workers, e.attributeChunk(b, window))
	if err != nil {
		return nil, err
	}
	res := mergeAttribution(tallies)
	res.Warnings = append(batchWarnings(b), res.Warnings...)

	zap.L().Info("funnel: attribution complete",
		zap.Int("credited", res.Conversions),
		zap.Int("skipped", res.Skipped),
		zap.Duration("window", window),
	)
	return res, nil
}

func batchWarnings(b *batch) []model.Warning {
	if b.dropped == 0 {
		return nil
	}
	return []model.Warning{{
		Code:    model.WarningDroppedRows,
		Message: fmt.Sprintf("%d events without a user id were ignored", b.dropped),
	}}
}

func excludedUser(userID string, err error) model.Warning {
	return model.Warning{Code: model.WarningExcludedUser, UserID: userID, Message: err.Error()}
}

package main

import (
	"context"
	"slices"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/funnel-cli/internal/funnel"
	"github.com/sells-group/funnel-cli/internal/ingest"
	"github.com/sells-group/funnel-cli/internal/model"
)

const customFunnelName = "custom_funnel"

// analysisParams are the operation parameters shared by the CLI and the
// HTTP API. Window is a Go duration string.
type analysisParams struct {
	Steps   []string `json:"steps,omitempty"`
	Name    string   `json:"name,omitempty"`
	Funnels []string `json:"funnels,omitempty"`
	Window  string   `json:"window,omitempty"`
}

// analyzeResult pairs the conversion analysis with its insights.
type analyzeResult struct {
	Analysis *model.ConversionAnalysis `json:"analysis"`
	Insights model.ConversionInsights  `json:"insights"`
}

func (p analysisParams) window() (time.Duration, error) {
	if p.Window == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(p.Window)
	if err != nil {
		return 0, model.NewConfigError("window", err.Error())
	}
	return d, nil
}

// runAnalysis executes one operation over a decoded batch and attaches
// the batch's ingest warnings to the result. The returned funnels are the
// step tables to persist alongside the run, if any.
func runAnalysis(ctx context.Context, eng *funnel.Engine, kind model.RunKind, b *ingest.Batch, p analysisParams) (any, []model.ConversionFunnel, error) {
	var events []model.Event
	if b != nil {
		events = b.Events
	}
	result, funnels, err := analyze(ctx, eng, kind, events, p)
	if err != nil {
		return nil, nil, err
	}
	attachWarnings(result, b.Warnings())
	return result, funnels, nil
}

// attachWarnings prepends ws to the warnings of result.
func attachWarnings(result any, ws []model.Warning) {
	if len(ws) == 0 {
		return
	}
	switch r := result.(type) {
	case *model.ConversionFunnel:
		r.Warnings = slices.Concat(ws, r.Warnings)
	case analyzeResult:
		r.Analysis.Warnings = slices.Concat(ws, r.Analysis.Warnings)
	case *model.DropOffAnalysis:
		r.Warnings = slices.Concat(ws, r.Warnings)
	case *model.JourneyReport:
		r.Warnings = slices.Concat(ws, r.Warnings)
	case *model.AttributionResult:
		r.Warnings = slices.Concat(ws, r.Warnings)
	case *model.Summary:
		r.Warnings = slices.Concat(ws, r.Warnings)
	}
}

func analyze(ctx context.Context, eng *funnel.Engine, kind model.RunKind, events []model.Event, p analysisParams) (any, []model.ConversionFunnel, error) {
	window, err := p.window()
	if err != nil {
		return nil, nil, err
	}

	switch kind {
	case model.RunKindFunnel:
		steps, name := p.Steps, p.Name
		if len(steps) == 0 {
			if name == "" {
				name = eng.Options().DefaultFunnel
			}
			if name == "" {
				return nil, nil, model.NewConfigError("funnel_steps", "no funnel steps supplied and no default funnel configured")
			}
			def, err := eng.Definition(name)
			if err != nil {
				return nil, nil, err
			}
			steps = def.Steps
		}
		if name == "" {
			name = customFunnelName
		}
		f, err := eng.BuildConversionFunnel(ctx, events, steps, name, window)
		if err != nil {
			return nil, nil, err
		}
		return f, []model.ConversionFunnel{*f}, nil

	case model.RunKindAnalyze:
		var defs []model.FunnelDefinition
		for _, name := range p.Funnels {
			def, err := eng.Definition(name)
			if err != nil {
				return nil, nil, err
			}
			defs = append(defs, def)
		}
		a, err := eng.CalculateConversionRates(ctx, events, defs)
		if err != nil {
			return nil, nil, err
		}
		return analyzeResult{Analysis: a, Insights: funnel.Insights(a)}, a.Funnels, nil

	case model.RunKindDropOff:
		d, err := eng.IdentifyDropOffPoints(ctx, events, p.Steps)
		return d, nil, err

	case model.RunKindJourneys:
		j, err := eng.CreateUserConversionJourneys(ctx, events, p.Steps)
		return j, nil, err

	case model.RunKindAttribution:
		a, err := eng.AnalyzeConversionAttribution(ctx, events, window)
		return a, nil, err

	case model.RunKindSummary:
		return eng.Summarize(events), nil, nil

	default:
		return nil, nil, eris.Errorf("unknown analysis kind %q", kind)
	}
}

package funnel

import (
	"cmp"
	"slices"
	"time"

	"github.com/sells-group/funnel-cli/internal/model"
)

// AnalyzeBottlenecks collects each funnel's bottleneck, ranks bottleneck
// steps by how many funnels share them, and flags every non-entry step that
// converts below 0.3.
func AnalyzeBottlenecks(funnels []model.ConversionFunnel) model.BottleneckAnalysis {
	a := model.BottleneckAnalysis{
		FunnelBottlenecks:  make(map[string]model.FunnelBottleneck),
		CommonBottlenecks:  []model.BottleneckFrequency{},
		BottleneckSeverity: make(map[string]model.BottleneckSeverity),
	}

	for _, f := range funnels {
		if f.BottleneckStep == "" {
			continue
		}
		a.FunnelBottlenecks[f.FunnelName] = model.FunnelBottleneck{
			BottleneckStep:        f.BottleneckStep,
			OverallConversionRate: f.OverallConversionRate,
		}
		idx := slices.IndexFunc(a.CommonBottlenecks, func(b model.BottleneckFrequency) bool {
			return b.Step == f.BottleneckStep
		})
		if idx < 0 {
			a.CommonBottlenecks = append(a.CommonBottlenecks, model.BottleneckFrequency{Step: f.BottleneckStep, Frequency: 1})
		} else {
			a.CommonBottlenecks[idx].Frequency++
		}
	}
	slices.SortStableFunc(a.CommonBottlenecks, func(x, y model.BottleneckFrequency) int {
		return cmp.Compare(y.Frequency, x.Frequency)
	})

	for _, f := range funnels {
		if len(f.Steps) < 2 {
			continue
		}
		for _, s := range f.Steps[1:] {
			if sev := Severity(s.ConversionRate); sev != "" {
				a.BottleneckSeverity[s.StepName] = model.BottleneckSeverity{
					Severity:       sev,
					ConversionRate: s.ConversionRate,
					Funnel:         f.FunnelName,
				}
			}
		}
	}
	return a
}

// AnalyzeTimes reports completion and transition timings and names the
// slowest transition across all funnels.
func AnalyzeTimes(funnels []model.ConversionFunnel) model.TimeAnalysis {
	a := model.TimeAnalysis{
		FunnelCompletionTimes: make(map[string]model.CompletionTime),
		StepTransitionTimes:   make(map[string]map[string]model.TransitionTime),
		Insights:              []string{},
	}

	var (
		slowestFunnel, slowestStep string
		slowest                    time.Duration
		found                      bool
	)
	for _, f := range funnels {
		if f.AvgCompletionTime != nil {
			d := *f.AvgCompletionTime
			a.FunnelCompletionTimes[f.FunnelName] = model.CompletionTime{
				Seconds: d.Seconds(),
				Minutes: d.Minutes(),
				Hours:   d.Hours(),
			}
		}

		steps := make(map[string]model.TransitionTime)
		for _, s := range f.Steps {
			if s.AvgTimeToNextStep == nil {
				continue
			}
			avg := *s.AvgTimeToNextStep
			tt := model.TransitionTime{AvgSeconds: avg.Seconds(), AvgMinutes: minutes(avg)}
			if s.MedianTimeToNextStep != nil {
				tt.MedianSeconds = s.MedianTimeToNextStep.Seconds()
			}
			steps[s.StepName] = tt
			if !found || avg > slowest {
				slowestFunnel, slowestStep, slowest, found = f.FunnelName, s.StepName, avg, true
			}
		}
		if len(steps) > 0 {
			a.StepTransitionTimes[f.FunnelName] = steps
		}
	}

	if found {
		a.Insights = append(a.Insights, newPrinter().Sprintf(
			"The slowest transition is %s in the %s funnel, averaging %.1f minutes",
			slowestStep, slowestFunnel, minutes(slowest)))
	}
	return a
}

// AnalyzeSegments breaks conversion down by dimension value. A user counts
// as converted in a segment when they fired any conversion event carrying
// that dimension value. Events without the dimension are ignored for it.
func AnalyzeSegments(events []model.Event, dimensions, conversionEvents []string) model.SegmentAnalysis {
	a := model.SegmentAnalysis{
		Dimensions: make(map[string]map[string]model.SegmentConversion),
		Insights:   []string{},
	}
	isConversion := make(map[string]struct{}, len(conversionEvents))
	for _, name := range conversionEvents {
		isConversion[name] = struct{}{}
	}

	p := newPrinter()
	for _, dim := range dimensions {
		users := make(map[string]map[string]struct{})
		converted := make(map[string]map[string]struct{})
		for _, e := range events {
			v, ok := e.Dimensions[dim]
			if !ok || v == "" || e.UserID == "" {
				continue
			}
			if users[v] == nil {
				users[v] = make(map[string]struct{})
				converted[v] = make(map[string]struct{})
			}
			users[v][e.UserID] = struct{}{}
			if _, ok := isConversion[e.Name]; ok {
				converted[v][e.UserID] = struct{}{}
			}
		}
		if len(users) == 0 {
			continue
		}

		segments := make(map[string]model.SegmentConversion, len(users))
		values := make([]string, 0, len(users))
		for v, set := range users {
			segments[v] = model.SegmentConversion{
				TotalUsers:     len(set),
				ConvertedUsers: len(converted[v]),
				ConversionRate: ratio(len(converted[v]), len(set)),
			}
			values = append(values, v)
		}
		a.Dimensions[dim] = segments

		slices.Sort(values)
		best := values[0]
		for _, v := range values[1:] {
			if segments[v].ConversionRate > segments[best].ConversionRate {
				best = v
			}
		}
		a.Insights = append(a.Insights, p.Sprintf(
			"Best %s segment is %s with %.1f%% of %d users converting",
			dim, best, percent(segments[best].ConversionRate), segments[best].TotalUsers))
	}
	return a
}

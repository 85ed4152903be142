package funnel

import (
	"slices"
	"time"

	"github.com/sells-group/funnel-cli/internal/model"
)

// Aggregate turns matched journeys into per-step counts, rates and
// transition timings. No journeys yields an empty funnel with zero rates.
func Aggregate(name string, steps []string, journeys []model.UserJourney) model.ConversionFunnel {
	f := model.ConversionFunnel{FunnelName: name, Steps: []model.FunnelStep{}}
	entered := len(journeys)
	if entered == 0 {
		return f
	}

	counts := make([]int, len(steps))
	transitions := make([][]time.Duration, len(steps))
	var completions []time.Duration
	converted := 0

	for _, j := range journeys {
		for i, s := range steps {
			if slices.Contains(j.CompletedSteps, s) {
				counts[i]++
			}
			if i+1 < len(steps) {
				if d, ok := j.StepDurations[model.TransitionKey(s, steps[i+1])]; ok {
					transitions[i] = append(transitions[i], d)
				}
			}
		}
		if j.CompletedAllSteps {
			converted++
			if j.TotalTime != nil {
				completions = append(completions, *j.TotalTime)
			}
		}
	}

	for i, s := range steps {
		var rate float64
		if i == 0 {
			rate = ratio(counts[0], entered)
		} else {
			rate = ratio(counts[i], counts[i-1])
		}
		step := model.FunnelStep{
			StepName:       s,
			StepOrder:      i,
			TotalUsers:     counts[i],
			ConversionRate: rate,
			DropOffRate:    1 - rate,
		}
		if len(transitions[i]) > 0 {
			avg := meanDuration(transitions[i])
			med := medianDuration(transitions[i])
			step.AvgTimeToNextStep = &avg
			step.MedianTimeToNextStep = &med
		}
		f.Steps = append(f.Steps, step)
	}

	f.TotalUsersEntered = entered
	f.TotalUsersConverted = converted
	f.OverallConversionRate = ratio(converted, entered)
	if len(completions) > 0 {
		avg := meanDuration(completions)
		f.AvgCompletionTime = &avg
	}
	f.BottleneckStep = FindBottleneck(f.Steps)
	return f
}

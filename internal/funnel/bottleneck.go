package funnel

import "github.com/sells-group/funnel-cli/internal/model"

// Severity labels.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// FindBottleneck returns the step after the first with the lowest
// conversion rate. The first such step wins ties. Funnels with fewer than
// two steps have no bottleneck.
func FindBottleneck(steps []model.FunnelStep) string {
	if len(steps) < 2 {
		return ""
	}
	worst := 1
	for i := 2; i < len(steps); i++ {
		if steps[i].ConversionRate < steps[worst].ConversionRate {
			worst = i
		}
	}
	return steps[worst].StepName
}

// Severity classifies a step conversion rate. Rates of 0.3 and above are
// not flagged and return "".
func Severity(rate float64) string {
	switch {
	case rate < 0.1:
		return SeverityHigh
	case rate < 0.3:
		return SeverityMedium
	default:
		return ""
	}
}

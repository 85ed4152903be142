package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/funnel-cli/internal/model"
)

func steps(rates ...float64) []model.FunnelStep {
	out := make([]model.FunnelStep, len(rates))
	for i, r := range rates {
		out[i] = model.FunnelStep{StepName: string(rune('a' + i)), StepOrder: i, ConversionRate: r}
	}
	return out
}

func TestFindBottleneck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		steps []model.FunnelStep
		want  string
	}{
		{"empty", nil, ""},
		{"single step", steps(1.0), ""},
		{"two steps", steps(1.0, 0.5), "b"},
		{"entry step ignored", steps(0.0, 0.5, 0.6), "b"},
		{"minimum wins", steps(1.0, 0.8, 0.2, 0.4), "c"},
		{"first of ties", steps(1.0, 0.5, 0.3, 0.3), "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FindBottleneck(tt.steps))
		})
	}
}

func TestSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rate float64
		want string
	}{
		{0, SeverityHigh},
		{0.099, SeverityHigh},
		{0.1, SeverityMedium},
		{0.299, SeverityMedium},
		{0.3, ""},
		{1, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Severity(tt.rate), "rate %v", tt.rate)
	}
}

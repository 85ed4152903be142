package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigError(t *testing.T) {
	t.Parallel()

	err := NewConfigError("steps", "funnel has no steps")
	assert.Equal(t, "invalid configuration: steps: funnel has no steps", err.Error())
	assert.True(t, IsConfigError(err))

	wrapped := eris.Wrap(err, "engine: build funnel")
	assert.True(t, IsConfigError(wrapped))

	assert.False(t, IsConfigError(errors.New("boom")))
	assert.False(t, IsConfigError(nil))
}

func TestFunnelDefinitionValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		steps   []string
		wantErr bool
	}{
		{"valid", []string{"page_view", "purchase"}, false},
		{"single step", []string{"page_view"}, false},
		{"nil steps", nil, true},
		{"empty name", []string{"page_view", ""}, true},
		{"duplicate", []string{"page_view", "purchase", "page_view"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := FunnelDefinition{Name: "f", Steps: tt.steps}.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsConfigError(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTransitionKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "page_view_to_sign_up", TransitionKey("page_view", "sign_up"))
}

func TestConversionFunnelStep(t *testing.T) {
	t.Parallel()

	f := ConversionFunnel{Steps: []FunnelStep{
		{StepName: "A", StepOrder: 0},
		{StepName: "B", StepOrder: 1},
	}}
	require.NotNil(t, f.Step("B"))
	assert.Equal(t, 1, f.Step("B").StepOrder)
	assert.Nil(t, f.Step("C"))
}

func TestConversionFunnelJSONOmitsNilTimes(t *testing.T) {
	t.Parallel()

	f := ConversionFunnel{FunnelName: "f", Steps: []FunnelStep{{StepName: "A"}}}
	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "avg_completion_time")
	assert.NotContains(t, string(data), "bottleneck_step")

	d := 90 * time.Second
	f.AvgCompletionTime = &d
	f.BottleneckStep = "A"
	data, err = json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"avg_completion_time":90000000000`)
	assert.Contains(t, string(data), `"bottleneck_step":"A"`)
}

func TestNewAttributionResult(t *testing.T) {
	t.Parallel()

	r := NewAttributionResult()
	assert.NotNil(t, r.FirstTouch)
	assert.NotNil(t, r.LastTouch)
	assert.NotNil(t, r.MultiTouch)
	assert.Empty(t, r.Insights)
}

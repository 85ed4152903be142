package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/funnel-cli/internal/model"
)

func TestInsights_NoFunnels(t *testing.T) {
	t.Parallel()

	ins := Insights(&model.ConversionAnalysis{})
	assert.Nil(t, ins.KeyMetrics)
	assert.Len(t, ins.Recommendations, 1)
	assert.Empty(t, ins.OptimizationOpportunities)

	assert.Len(t, Insights(nil).Recommendations, 1)
}

func TestInsights(t *testing.T) {
	t.Parallel()

	funnels := []model.ConversionFunnel{
		{FunnelName: "reg", OverallConversionRate: 0.3, BottleneckStep: "sign_up", Steps: []model.FunnelStep{
			{StepName: "page_view", ConversionRate: 1},
			{StepName: "sign_up", ConversionRate: 0.3},
		}},
		{FunnelName: "buy", OverallConversionRate: 0.02, BottleneckStep: "purchase", Steps: []model.FunnelStep{
			{StepName: "page_view", ConversionRate: 1},
			{StepName: "purchase", ConversionRate: 0.02},
		}},
		{FunnelName: "browse", OverallConversionRate: 0.7, BottleneckStep: "search", Steps: []model.FunnelStep{
			{StepName: "page_view", ConversionRate: 1},
			{StepName: "search", ConversionRate: 0.7},
		}},
	}
	a := &model.ConversionAnalysis{
		Funnels:            funnels,
		BottleneckAnalysis: AnalyzeBottlenecks(funnels),
		TimeAnalysis:       model.TimeAnalysis{Insights: []string{"slow"}},
	}

	ins := Insights(a)
	require.NotNil(t, ins.KeyMetrics)
	assert.InDelta(t, 0.34, ins.KeyMetrics.AvgConversionRate, 1e-12)
	assert.InDelta(t, 0.7, ins.KeyMetrics.BestConversionRate, 1e-12)
	assert.InDelta(t, 0.02, ins.KeyMetrics.WorstConversionRate, 1e-12)
	assert.Equal(t, 3, ins.KeyMetrics.TotalFunnelsAnalyzed)

	require.Len(t, ins.OptimizationOpportunities, 2)
	assert.Equal(t, "reg", ins.OptimizationOpportunities[0].Funnel)
	assert.Equal(t, "purchase", ins.OptimizationOpportunities[1].BottleneckStep)

	assert.Equal(t, []string{
		"Best funnel is browse with a conversion rate of 0.700",
		"Worst funnel is buy with a conversion rate of 0.020",
	}, ins.PerformanceInsights)
	assert.Equal(t, []string{
		"Focus on sign_up: it is the bottleneck of 1 funnels",
		"slow",
	}, ins.Recommendations)
}

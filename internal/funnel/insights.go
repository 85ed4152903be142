package funnel

import (
	"slices"

	"github.com/sells-group/funnel-cli/internal/model"
)

const (
	opportunityThreshold = 0.5
	lowAverageRate       = 0.1
	moderateAverageRate  = 0.3
)

// Insights turns a conversion analysis into headline metrics, optimisation
// opportunities and recommendations.
func Insights(a *model.ConversionAnalysis) model.ConversionInsights {
	ins := model.ConversionInsights{
		OptimizationOpportunities: []model.Opportunity{},
		PerformanceInsights:       []string{},
		Recommendations:           []string{},
	}
	if a == nil || len(a.Funnels) == 0 {
		ins.Recommendations = append(ins.Recommendations,
			"Not enough data: collect more conversion events before optimising")
		return ins
	}

	rates := make([]float64, len(a.Funnels))
	best, worst := 0, 0
	for i, f := range a.Funnels {
		rates[i] = f.OverallConversionRate
		if f.OverallConversionRate > a.Funnels[best].OverallConversionRate {
			best = i
		}
		if f.OverallConversionRate < a.Funnels[worst].OverallConversionRate {
			worst = i
		}
	}
	ins.KeyMetrics = &model.KeyMetrics{
		AvgConversionRate:    meanFloat(rates),
		BestConversionRate:   slices.Max(rates),
		WorstConversionRate:  slices.Min(rates),
		TotalFunnelsAnalyzed: len(a.Funnels),
	}

	for _, f := range a.Funnels {
		if f.BottleneckStep == "" {
			continue
		}
		s := f.Step(f.BottleneckStep)
		if s == nil || s.ConversionRate >= opportunityThreshold {
			continue
		}
		ins.OptimizationOpportunities = append(ins.OptimizationOpportunities, model.Opportunity{
			Funnel:               f.FunnelName,
			BottleneckStep:       f.BottleneckStep,
			ConversionRate:       s.ConversionRate,
			ImprovementPotential: "Improving " + f.BottleneckStep + " could lift the whole funnel",
		})
	}

	p := newPrinter()
	ins.PerformanceInsights = append(ins.PerformanceInsights,
		p.Sprintf("Best funnel is %s with a conversion rate of %.3f",
			a.Funnels[best].FunnelName, a.Funnels[best].OverallConversionRate),
		p.Sprintf("Worst funnel is %s with a conversion rate of %.3f",
			a.Funnels[worst].FunnelName, a.Funnels[worst].OverallConversionRate),
	)

	if common := a.BottleneckAnalysis.CommonBottlenecks; len(common) > 0 {
		ins.Recommendations = append(ins.Recommendations,
			p.Sprintf("Focus on %s: it is the bottleneck of %d funnels", common[0].Step, common[0].Frequency))
	}
	switch avg := ins.KeyMetrics.AvgConversionRate; {
	case avg < lowAverageRate:
		ins.Recommendations = append(ins.Recommendations,
			"Overall conversion is low; review the user experience across the whole flow")
	case avg < moderateAverageRate:
		ins.Recommendations = append(ins.Recommendations,
			"Conversion has room to grow; optimise the key conversion steps")
	}
	ins.Recommendations = append(ins.Recommendations, a.TimeAnalysis.Insights...)
	return ins
}

package funnel

import (
	"slices"

	"github.com/sells-group/funnel-cli/internal/model"
)

// CalculateMetrics computes per-event user conversion rates for the given
// conversion events, the union rate of users who fired any of them, and the
// spread of overall conversion rates across funnels. Funnel statistics are
// left nil when funnels is empty.
func CalculateMetrics(events []model.Event, conversionEvents []string, funnels []model.ConversionFunnel) model.ConversionMetrics {
	users := make(map[string]struct{})
	byEvent := make(map[string]map[string]struct{}, len(conversionEvents))
	for _, name := range conversionEvents {
		byEvent[name] = make(map[string]struct{})
	}
	converted := make(map[string]struct{})

	for _, e := range events {
		if e.UserID == "" {
			continue
		}
		users[e.UserID] = struct{}{}
		if set, ok := byEvent[e.Name]; ok {
			set[e.UserID] = struct{}{}
			converted[e.UserID] = struct{}{}
		}
	}

	m := model.ConversionMetrics{
		TotalUsers:                len(users),
		ConvertedUsers:            len(converted),
		EventConversionRates:      make(map[string]float64, len(conversionEvents)),
		OverallConversionUserRate: ratio(len(converted), len(users)),
	}
	for name, set := range byEvent {
		m.EventConversionRates[name] = ratio(len(set), len(users))
	}

	if len(funnels) > 0 {
		rates := make([]float64, len(funnels))
		for i, f := range funnels {
			rates[i] = f.OverallConversionRate
		}
		avg, hi, lo := meanFloat(rates), slices.Max(rates), slices.Min(rates)
		m.AvgFunnelConversionRate = &avg
		m.MaxFunnelConversionRate = &hi
		m.MinFunnelConversionRate = &lo
	}
	return m
}

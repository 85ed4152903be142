package model

import "time"

// KeyMetrics are headline numbers across analysed funnels.
type KeyMetrics struct {
	AvgConversionRate    float64 `json:"avg_conversion_rate"`
	BestConversionRate   float64 `json:"best_conversion_rate"`
	WorstConversionRate  float64 `json:"worst_conversion_rate"`
	TotalFunnelsAnalyzed int     `json:"total_funnels_analyzed"`
}

// Opportunity points at a bottleneck worth optimising.
type Opportunity struct {
	Funnel               string  `json:"funnel"`
	BottleneckStep       string  `json:"bottleneck_step"`
	ConversionRate       float64 `json:"conversion_rate"`
	ImprovementPotential string  `json:"improvement_potential"`
}

// ConversionInsights is the narrative layer over a ConversionAnalysis.
type ConversionInsights struct {
	KeyMetrics                *KeyMetrics   `json:"key_metrics,omitempty"`
	OptimizationOpportunities []Opportunity `json:"optimization_opportunities"`
	PerformanceInsights       []string      `json:"performance_insights"`
	Recommendations           []string      `json:"recommendations"`
}

// DateRange spans the first and last event day of a batch.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Summary describes a batch before any funnel is built.
type Summary struct {
	TotalEvents                 int            `json:"total_events"`
	UniqueUsers                 int            `json:"unique_users"`
	UniqueEventTypes            int            `json:"unique_event_types"`
	ConversionEventsCount       int            `json:"conversion_events_count"`
	ConversionUsersCount        int            `json:"conversion_users_count"`
	ConversionUserRate          float64        `json:"conversion_user_rate"`
	DateRange                   *DateRange     `json:"date_range,omitempty"`
	AvailableFunnels            []string       `json:"available_funnels"`
	ConversionEventDistribution map[string]int `json:"conversion_event_distribution"`
	Warnings                    []Warning      `json:"warnings,omitempty"`
}

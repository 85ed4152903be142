package model

import "time"

// FunnelStep aggregates one step of a funnel across all journeys.
type FunnelStep struct {
	StepName             string         `json:"step_name"`
	StepOrder            int            `json:"step_order"`
	TotalUsers           int            `json:"total_users"`
	ConversionRate       float64        `json:"conversion_rate"`
	DropOffRate          float64        `json:"drop_off_rate"`
	AvgTimeToNextStep    *time.Duration `json:"avg_time_to_next_step,omitempty"`
	MedianTimeToNextStep *time.Duration `json:"median_time_to_next_step,omitempty"`
}

// ConversionFunnel is the aggregated result for one funnel definition.
type ConversionFunnel struct {
	FunnelName            string         `json:"funnel_name"`
	Steps                 []FunnelStep   `json:"steps"`
	OverallConversionRate float64        `json:"overall_conversion_rate"`
	TotalUsersEntered     int            `json:"total_users_entered"`
	TotalUsersConverted   int            `json:"total_users_converted"`
	AvgCompletionTime     *time.Duration `json:"avg_completion_time,omitempty"`
	BottleneckStep        string         `json:"bottleneck_step,omitempty"`
	Warnings              []Warning      `json:"warnings,omitempty"`
}

// Step returns the named step, or nil.
func (f *ConversionFunnel) Step(name string) *FunnelStep {
	for i := range f.Steps {
		if f.Steps[i].StepName == name {
			return &f.Steps[i]
		}
	}
	return nil
}

// ConversionMetrics summarises conversion across a batch.
type ConversionMetrics struct {
	TotalUsers                int                `json:"total_users"`
	ConvertedUsers            int                `json:"converted_users"`
	EventConversionRates      map[string]float64 `json:"event_conversion_rates"`
	AvgFunnelConversionRate   *float64           `json:"avg_funnel_conversion_rate,omitempty"`
	MaxFunnelConversionRate   *float64           `json:"max_funnel_conversion_rate,omitempty"`
	MinFunnelConversionRate   *float64           `json:"min_funnel_conversion_rate,omitempty"`
	OverallConversionUserRate float64            `json:"overall_conversion_user_rate"`
}

// FunnelBottleneck names the bottleneck of one funnel.
type FunnelBottleneck struct {
	BottleneckStep        string  `json:"bottleneck_step"`
	OverallConversionRate float64 `json:"overall_conversion_rate"`
}

// BottleneckFrequency counts how many funnels share a bottleneck step.
type BottleneckFrequency struct {
	Step      string `json:"step"`
	Frequency int    `json:"frequency"`
}

// BottleneckSeverity flags a low-converting step.
type BottleneckSeverity struct {
	Severity       string  `json:"severity"`
	ConversionRate float64 `json:"conversion_rate"`
	Funnel         string  `json:"funnel"`
}

// BottleneckAnalysis groups bottlenecks across funnels.
type BottleneckAnalysis struct {
	FunnelBottlenecks  map[string]FunnelBottleneck   `json:"funnel_bottlenecks"`
	CommonBottlenecks  []BottleneckFrequency         `json:"common_bottlenecks"`
	BottleneckSeverity map[string]BottleneckSeverity `json:"bottleneck_severity"`
}

// CompletionTime is a funnel's mean completion time in several units.
type CompletionTime struct {
	Seconds float64 `json:"avg_completion_time_seconds"`
	Minutes float64 `json:"avg_completion_time_minutes"`
	Hours   float64 `json:"avg_completion_time_hours"`
}

// TransitionTime is the timing from one step to the next.
type TransitionTime struct {
	AvgSeconds    float64 `json:"avg_time_seconds"`
	MedianSeconds float64 `json:"median_time_seconds"`
	AvgMinutes    float64 `json:"avg_time_minutes"`
}

// TimeAnalysis groups completion and transition timings across funnels.
type TimeAnalysis struct {
	FunnelCompletionTimes map[string]CompletionTime            `json:"funnel_completion_times"`
	StepTransitionTimes   map[string]map[string]TransitionTime `json:"step_transition_times"`
	Insights              []string                             `json:"time_insights"`
}

// SegmentConversion is conversion within one value of a dimension.
type SegmentConversion struct {
	TotalUsers     int     `json:"total_users"`
	ConvertedUsers int     `json:"converted_users"`
	ConversionRate float64 `json:"conversion_rate"`
}

// SegmentAnalysis maps dimension -> value -> conversion.
type SegmentAnalysis struct {
	Dimensions map[string]map[string]SegmentConversion `json:"dimensions"`
	Insights   []string                                `json:"segment_insights"`
}

// ConversionAnalysis is the result of evaluating every configured funnel.
type ConversionAnalysis struct {
	Funnels            []ConversionFunnel `json:"funnels"`
	ConversionMetrics  ConversionMetrics  `json:"conversion_metrics"`
	BottleneckAnalysis BottleneckAnalysis `json:"bottleneck_analysis"`
	TimeAnalysis       TimeAnalysis       `json:"time_analysis"`
	SegmentAnalysis    SegmentAnalysis    `json:"segment_analysis"`
	Warnings           []Warning          `json:"warnings,omitempty"`
}

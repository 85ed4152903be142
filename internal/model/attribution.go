package model

// AttributionResult holds credit per event name under each attribution model.
type AttributionResult struct {
	FirstTouch  map[string]int     `json:"first_touch_attribution"`
	LastTouch   map[string]int     `json:"last_touch_attribution"`
	MultiTouch  map[string]float64 `json:"multi_touch_attribution"`
	Conversions int                `json:"attributed_conversions"`
	Skipped     int                `json:"skipped_conversions"`
	Insights    []string           `json:"attribution_insights"`
	Warnings    []Warning          `json:"warnings,omitempty"`
}

// NewAttributionResult returns an empty result with initialised maps.
func NewAttributionResult() *AttributionResult {
	return &AttributionResult{
		FirstTouch: make(map[string]int),
		LastTouch:  make(map[string]int),
		MultiTouch: make(map[string]float64),
		Insights:   []string{},
	}
}

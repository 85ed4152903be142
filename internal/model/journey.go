package model

import "time"

// ConversionStatus is the outcome of a single user's journey.
type ConversionStatus string

const (
	StatusConverted  ConversionStatus = "converted"
	StatusDroppedOff ConversionStatus = "dropped_off"
)

// UserJourney is the greedy match of one user's events against a funnel.
type UserJourney struct {
	UserID            string                   `json:"user_id"`
	CompletedSteps    []string                 `json:"completed_steps"`
	StepTimes         map[string]time.Time     `json:"step_times"`
	CompletedAllSteps bool                     `json:"completed_all_steps"`
	TotalTime         *time.Duration           `json:"total_time,omitempty"`
	StepDurations     map[string]time.Duration `json:"step_durations"`
	DropOffStep       string                   `json:"drop_off_step,omitempty"`
	ConversionStatus  ConversionStatus         `json:"conversion_status"`
}

// JourneyReport is the public projection of matched journeys for one funnel.
type JourneyReport struct {
	Steps    []string      `json:"steps"`
	Journeys []UserJourney `json:"journeys"`
	Warnings []Warning     `json:"warnings,omitempty"`
}

// TransitionKey names the duration between two consecutive steps.
func TransitionKey(from, to string) string {
	return from + "_to_" + to
}

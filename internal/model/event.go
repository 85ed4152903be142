package model

import (
	"fmt"
	"time"
)

// Event is one analytics event as handed over by the ingest boundary.
type Event struct {
	UserID     string            `json:"user_id"`
	Name       string            `json:"event_name"`
	Timestamp  time.Time         `json:"event_datetime"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
}

// FunnelDefinition is a named, ordered list of distinct step names.
// The index of a step is its required position in a journey.
type FunnelDefinition struct {
	Name  string   `json:"name" yaml:"name" mapstructure:"name"`
	Steps []string `json:"steps" yaml:"steps" mapstructure:"steps"`
}

// Validate checks that the definition has at least one step and that step
// names are non-empty and distinct.
func (d FunnelDefinition) Validate() error {
	if len(d.Steps) == 0 {
		return NewConfigError("funnel_steps", "no funnel steps supplied")
	}
	seen := make(map[string]struct{}, len(d.Steps))
	for i, s := range d.Steps {
		if s == "" {
			return NewConfigError("funnel_steps", fmt.Sprintf("step %d has an empty name", i))
		}
		if _, dup := seen[s]; dup {
			return NewConfigError("funnel_steps", fmt.Sprintf("step %q appears more than once", s))
		}
		seen[s] = struct{}{}
	}
	return nil
}

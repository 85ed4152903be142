package model

import (
	"errors"
	"fmt"
)

// ConfigError reports a fatal configuration problem: a missing time field,
// no funnel steps, an unknown funnel. It is never retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// NewConfigError builds a ConfigError.
func NewConfigError(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}

// IsConfigError reports whether err (or anything it wraps) is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// WarningCode classifies a data-quality condition carried inside a result.
type WarningCode string

const (
	WarningEmptyInput       WarningCode = "empty_input"
	WarningNoMatchingEvents WarningCode = "no_matching_events"
	WarningExcludedUser     WarningCode = "excluded_user"
	WarningDroppedRows      WarningCode = "dropped_rows"
)

// Warning is a non-fatal data-quality note attached to a result.
type Warning struct {
	Code    WarningCode `json:"code"`
	UserID  string      `json:"user_id,omitempty"`
	Message string      `json:"message"`
}

package model

import (
	"encoding/json"
	"time"
)

// RunKind identifies which analysis produced a run.
type RunKind string

const (
	RunKindFunnel      RunKind = "funnel"
	RunKindAnalyze     RunKind = "analyze"
	RunKindDropOff     RunKind = "dropoff"
	RunKindJourneys    RunKind = "journeys"
	RunKindAttribution RunKind = "attribution"
	RunKindSummary     RunKind = "summary"
)

// Run is a persisted analysis: its parameters and JSON result.
type Run struct {
	ID        string          `json:"id"`
	Kind      RunKind         `json:"kind"`
	Source    string          `json:"source"`
	Params    json.RawMessage `json:"params,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

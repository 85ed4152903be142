package model

// DropOffStep describes how many users reached a step and how many were lost.
type DropOffStep struct {
	StepName       string   `json:"step_name"`
	StepOrder      int      `json:"step_order"`
	UsersReached   int      `json:"users_reached"`
	ConversionRate float64  `json:"conversion_rate"`
	DropOffRate    float64  `json:"drop_off_rate"`
	UsersLost      *int     `json:"users_lost,omitempty"`
	UsersLostRate  *float64 `json:"users_lost_rate,omitempty"`
}

// DropOffPoint is a step that lost more than half of the previous step's users.
type DropOffPoint struct {
	StepName    string  `json:"step_name"`
	DropOffRate float64 `json:"drop_off_rate"`
	UsersLost   int     `json:"users_lost"`
}

// DropOffAnalysis is the result of IdentifyDropOffPoints.
type DropOffAnalysis struct {
	FunnelSteps        []DropOffStep  `json:"funnel_steps"`
	MajorDropOffPoints []DropOffPoint `json:"major_drop_off_points"`
	Insights           []string       `json:"drop_off_insights"`
	Warnings           []Warning      `json:"warnings,omitempty"`
}

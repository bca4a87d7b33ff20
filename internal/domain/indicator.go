package domain

import "time"

// EconomicIndicator describes a scheduled or past economic data release.
// The ID is stable across repeated fetches of the same underlying
// release, so re-scheduling is idempotent.
type EconomicIndicator struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Country       string      `json:"country"`
	ReleaseTime   time.Time   `json:"release_time"`
	ImpactLevel   ImpactLevel `json:"impact_level"`
	PreviousValue string      `json:"previous_value,omitempty"`
	ForecastValue string      `json:"forecast_value,omitempty"`
	ActualValue   string      `json:"actual_value,omitempty"`
}

// UpcomingRelease binds an indicator to its alert bookkeeping.
// Notified flips from false to true exactly once and never reverts.
type UpcomingRelease struct {
	Indicator EconomicIndicator `json:"indicator"`
	Notified  bool              `json:"notified"`
}

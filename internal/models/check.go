package models

import "time"

// CheckStatus is the terminal status of a single check within a run.
type CheckStatus string

const (
	CheckStatusPass          CheckStatus = "pass"
	CheckStatusFail          CheckStatus = "fail"
	CheckStatusWarning       CheckStatus = "warning"
	CheckStatusError         CheckStatus = "error"
	CheckStatusNotApplicable CheckStatus = "not_applicable"
	CheckStatusSkipped       CheckStatus = "skipped"
)

// Evaluated reports whether the check actually ran its algorithm and should
// count toward score averages. Errored and inapplicable checks are excluded
// from the denominator, not zero-weighted.
func (s CheckStatus) Evaluated() bool {
	switch s {
	case CheckStatusPass, CheckStatusFail, CheckStatusWarning, CheckStatusSkipped:
		return true
	default:
		return false
	}
}

// CheckResult is produced exactly once per check per run and is immutable
// after creation.
type CheckResult struct {
	CheckID         string         `json:"check_id"`
	Category        string         `json:"category"`
	Status          CheckStatus    `json:"status"`
	Score           float64        `json:"score"`
	Message         string         `json:"message,omitempty"`
	Details         map[string]any `json:"details,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}

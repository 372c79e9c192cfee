package models

import "time"

// RunStatus is the lifecycle status of a validation run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusCancelled RunStatus = "CANCELLED"
)

// OverallStatus classifies the aggregate score on the fractional scale:
// pass ≥ 0.9, pass_with_warnings ≥ 0.7, fail otherwise.
type OverallStatus string

const (
	OverallPass             OverallStatus = "pass"
	OverallPassWithWarnings OverallStatus = "pass_with_warnings"
	OverallFail             OverallStatus = "fail"
)

// CriticalIssue is a failed check whose definition carries weight >= 3.0.
type CriticalIssue struct {
	CheckID     string  `json:"check_id"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Message     string  `json:"message,omitempty"`
	Weight      float64 `json:"weight"`
}

// Task is one remediation item in an action plan.
type Task struct {
	CheckID        string  `json:"check_id"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	EstimatedHours float64 `json:"estimated_hours"`
}

// ActionPlan splits remediation into priority (fail/error) and optional
// (warning) work, with fixed effort heuristics.
type ActionPlan struct {
	PriorityTasks       []Task  `json:"priority_tasks"`
	OptionalTasks       []Task  `json:"optional_tasks"`
	TotalEstimatedHours float64 `json:"total_estimated_hours"`
}

// ValidationRun is the result object for one run. It is mutated incrementally
// while checks execute and frozen when the run reaches a terminal status.
// The field names are a contract with the report renderer and results store.
type ValidationRun struct {
	RunID             string                  `json:"run_id"`
	Status            RunStatus               `json:"status"`
	CreatedAt         time.Time               `json:"created_at"`
	Documents         []*Document             `json:"-"`
	DocumentKeys      []string                `json:"document_keys,omitempty"`
	ConfigName        string                  `json:"config_name,omitempty"`
	IndividualResults map[string]*CheckResult `json:"individual_results"`
	CategoryScores    map[string]float64      `json:"category_scores"`
	OverallScore      float64                 `json:"overall_score"`
	OverallStatus     OverallStatus           `json:"overall_status"`
	CriticalIssues    []CriticalIssue         `json:"critical_issues"`
	Recommendations   []string                `json:"recommendations"`
	ActionPlan        *ActionPlan             `json:"action_plan,omitempty"`
	ExecutionMS       int64                   `json:"execution_ms"`
	ErrorMessage      string                  `json:"error_message,omitempty"`
}

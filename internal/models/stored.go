package models

import "time"

// StoredDocument is the metadata row for an uploaded document; the raw bytes
// live in object storage under StorageKey.
type StoredDocument struct {
	ID          string       `json:"id" db:"id"`
	Filename    string       `json:"filename" db:"filename"`
	Type        DocumentType `json:"document_type" db:"document_type"`
	ContentType string       `json:"content_type" db:"content_type"`
	FileSize    int64        `json:"file_size" db:"file_size"`
	StorageKey  string       `json:"storage_key" db:"storage_key"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// RunSummary is the list-view projection of a validation run.
type RunSummary struct {
	RunID        string    `json:"run_id" db:"run_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	OverallScore float64   `json:"overall_score" db:"overall_score"`
	Status       RunStatus `json:"status" db:"status"`
	ExecutionMS  int64     `json:"execution_ms" db:"execution_ms"`
	ConfigName   string    `json:"config_name" db:"config_name"`
}

// CategoryTrend is the historical average score for one category.
type CategoryTrend struct {
	Category   string  `json:"category" db:"category"`
	AvgScore   float64 `json:"avg_score" db:"avg_score"`
	CheckCount int     `json:"check_count" db:"check_count"`
}

// CheckFailureCount counts historical failures of one check.
type CheckFailureCount struct {
	CheckID  string `json:"check_id" db:"check_id"`
	Category string `json:"category" db:"category"`
	Failures int    `json:"failures" db:"failures"`
}

// TrendReport aggregates stored runs over a trailing window.
type TrendReport struct {
	Days             int                 `json:"days"`
	RunCount         int                 `json:"run_count"`
	AvgOverallScore  float64             `json:"avg_overall_score"`
	PassRate         float64             `json:"pass_rate"`
	CategoryAverages []CategoryTrend     `json:"category_averages"`
	MostFailedChecks []CheckFailureCount `json:"most_failed_checks"`
}

package models

import "time"

type UploadRequest struct {
	File         []byte
	Filename     string
	ContentType  string
	DocumentType DocumentType
}

type UploadResponse struct {
	ID           string       `json:"id"`
	Filename     string       `json:"filename"`
	DocumentType DocumentType `json:"document_type"`
	FileSize     int64        `json:"file_size"`
	CreatedAt    time.Time    `json:"created_at"`
	Message      string       `json:"message"`
}

// ValidationRequest starts a run over previously uploaded documents.
type ValidationRequest struct {
	DocumentIDs    []string       `json:"document_ids"`
	ProjectContext ProjectContext `json:"project_context,omitempty"`
	Async          bool           `json:"async,omitempty"`
}

// RunProgress is returned for a run that is still executing.
type RunProgress struct {
	RunID     string    `json:"run_id"`
	Status    RunStatus `json:"status"`
	Completed int       `json:"completed_checks"`
	Total     int       `json:"total_checks"`
}

package models

import "strings"

// DocumentType identifies the kind of source document a content tree came from.
type DocumentType string

const (
	DocumentSiteSurveyPart1 DocumentType = "site_survey_1"
	DocumentSiteSurveyPart2 DocumentType = "site_survey_2"
	DocumentInstallPlan     DocumentType = "install_plan"
)

// ContentTree is extracted document content: section name → field name → value.
// Values may themselves be nested map[string]any (e.g. a "key_values" block).
type ContentTree map[string]map[string]any

// Document is the extractor output contract consumed by the validation engine.
// It is created once per extraction and read-only afterward.
type Document struct {
	ID               string         `json:"id"`
	Type             DocumentType   `json:"document_type"`
	Filename         string         `json:"filename,omitempty"`
	StorageKey       string         `json:"storage_key,omitempty"`
	Content          ContentTree    `json:"content"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	ProcessingErrors []string       `json:"processing_errors,omitempty"`
}

// Lookup resolves a dotted path ("Section.key_values.field") against the
// content tree. Returns the value and whether the full path resolved.
func (d *Document) Lookup(path string) (any, bool) {
	if d == nil || d.Content == nil {
		return nil, false
	}

	parts := strings.Split(path, ".")
	if len(parts) < 2 {
		return nil, false
	}

	section, ok := d.Content[parts[0]]
	if !ok {
		return nil, false
	}

	var current any = section
	for _, part := range parts[1:] {
		m, ok := toStringMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func toStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// ProjectContext holds free-form key/values describing the project under
// validation (cluster size, project type, approval status, ...).
type ProjectContext map[string]any

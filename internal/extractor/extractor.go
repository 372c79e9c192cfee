// Package extractor turns raw spreadsheet/PDF bytes into the nested
// key/value content trees the validation engine consumes. Extraction never
// aborts the run: unreadable sheets or pages are recorded in the document's
// processing_errors and the affected fields simply come up absent.
package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/siteops/doc-validator-api/internal/models"
)

// Extract dispatches on document type: site surveys are spreadsheets, the
// install plan is a PDF.
func Extract(docType models.DocumentType, filename string, data []byte) (*models.Document, error) {
	switch docType {
	case models.DocumentSiteSurveyPart1, models.DocumentSiteSurveyPart2:
		return ExtractXLSX(docType, filename, data), nil
	case models.DocumentInstallPlan:
		return ExtractPDF(docType, filename, data), nil
	default:
		return nil, fmt.Errorf("unsupported document type %q", docType)
	}
}

var keyCleanRe = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeKey converts a human field label ("Project Name:") into the
// snake_case key the rule catalog addresses ("project_name").
func NormalizeKey(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.TrimSuffix(key, ":")
	key = keyCleanRe.ReplaceAllString(key, "_")
	return strings.Trim(key, "_")
}

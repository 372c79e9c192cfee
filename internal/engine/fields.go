package engine

import (
	"fmt"
	"strings"

	"github.com/siteops/doc-validator-api/internal/models"
	"github.com/siteops/doc-validator-api/internal/rules"
)

// FieldValue is one extracted occurrence of a catalog field reference.
type FieldValue struct {
	Document models.DocumentType
	Path     string
	Value    string
	Found    bool
}

// collectFields resolves every location of a check against the available
// documents. A location whose document is absent yields Found=false so the
// algorithm can fail its own presence test.
func collectFields(locations []rules.FieldRef, docs map[models.DocumentType]*models.Document) []FieldValue {
	values := make([]FieldValue, 0, len(locations))
	for _, loc := range locations {
		fv := FieldValue{Document: loc.Document, Path: loc.Path}
		if doc, ok := docs[loc.Document]; ok {
			if raw, found := doc.Lookup(loc.Path); found {
				fv.Value = asString(raw)
				fv.Found = true
			}
		}
		values = append(values, fv)
	}
	return values
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func contextString(pctx models.ProjectContext, key string) (string, bool) {
	if pctx == nil {
		return "", false
	}
	v, ok := pctx[key]
	if !ok || v == nil {
		return "", false
	}
	s := strings.TrimSpace(asString(v))
	return s, s != ""
}

package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/siteops/doc-validator-api/internal/models"
)

// ExtractXLSX builds a content tree from a Site Survey workbook. Each
// worksheet becomes a section; rows with a label in the first column and a
// value in the second become entries under that section's "key_values".
func ExtractXLSX(docType models.DocumentType, filename string, data []byte) *models.Document {
	doc := &models.Document{
		Type:     docType,
		Filename: filename,
		Content:  models.ContentTree{},
		Metadata: map[string]any{"format": "xlsx"},
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		doc.ProcessingErrors = append(doc.ProcessingErrors, fmt.Sprintf("failed to open workbook: %v", err))
		return doc
	}
	defer f.Close()

	sheets := f.GetSheetList()
	doc.Metadata["sheet_count"] = len(sheets)

	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			doc.ProcessingErrors = append(doc.ProcessingErrors, fmt.Sprintf("sheet %q unreadable: %v", sheet, err))
			continue
		}

		keyValues := map[string]any{}
		for _, row := range rows {
			if len(row) < 2 {
				continue
			}
			key := NormalizeKey(row[0])
			if key == "" {
				continue
			}
			keyValues[key] = strings.TrimSpace(row[1])
		}

		if len(keyValues) == 0 {
			continue
		}
		doc.Content[strings.TrimSpace(sheet)] = map[string]any{"key_values": keyValues}
	}

	if len(doc.Content) == 0 {
		doc.ProcessingErrors = append(doc.ProcessingErrors, "no key/value content found in workbook")
	}

	return doc
}

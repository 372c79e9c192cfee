package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/siteops/doc-validator-api/internal/models"
)

// ExtractPDF builds a content tree from an Install Plan PDF. Page text is
// split into sections at heading-looking lines; "Label: value" lines become
// key/value entries, and the raw section text is kept under "text".
func ExtractPDF(docType models.DocumentType, filename string, data []byte) *models.Document {
	doc := &models.Document{
		Type:     docType,
		Filename: filename,
		Content:  models.ContentTree{},
		Metadata: map[string]any{"format": "pdf"},
	}

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		doc.ProcessingErrors = append(doc.ProcessingErrors, fmt.Sprintf("failed to open PDF: %v", err))
		return doc
	}

	numPages := pdfReader.NumPage()
	doc.Metadata["page_count"] = numPages

	var textBuilder strings.Builder
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			doc.ProcessingErrors = append(doc.ProcessingErrors, fmt.Sprintf("page %d unreadable: %v", i, err))
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	buildSections(doc, textBuilder.String())

	if len(doc.Content) == 0 {
		doc.ProcessingErrors = append(doc.ProcessingErrors, "no text could be extracted from PDF")
	}

	return doc
}

// buildSections parses extracted plain text into the section → field tree.
// Exposed to tests through ParseTextSections.
func buildSections(doc *models.Document, text string) {
	section := "General"
	keyValues := map[string]any{}
	var sectionText strings.Builder

	flush := func() {
		if len(keyValues) == 0 && strings.TrimSpace(sectionText.String()) == "" {
			return
		}
		entry := map[string]any{"key_values": keyValues}
		if t := strings.TrimSpace(sectionText.String()); t != "" {
			entry["text"] = t
		}
		doc.Content[section] = entry
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isHeading(line) {
			flush()
			section = strings.TrimSpace(strings.TrimSuffix(line, ":"))
			keyValues = map[string]any{}
			sectionText.Reset()
			continue
		}

		sectionText.WriteString(line)
		sectionText.WriteString("\n")

		if label, value, ok := splitLabelValue(line); ok {
			keyValues[NormalizeKey(label)] = value
		}
	}
	flush()
}

// ParseTextSections builds a content tree from already-extracted plain text.
func ParseTextSections(docType models.DocumentType, text string) *models.Document {
	doc := &models.Document{Type: docType, Content: models.ContentTree{}}
	buildSections(doc, text)
	return doc
}

// isHeading treats a short line without a value separator as a section
// heading when its words are capitalized.
func isHeading(line string) bool {
	if len(line) > 60 || strings.Contains(line, ":") {
		return false
	}
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > 6 {
		return false
	}
	for _, w := range words {
		r := []rune(w)
		if !unicode.IsUpper(r[0]) && !unicode.IsDigit(r[0]) {
			return false
		}
	}
	return true
}

func splitLabelValue(line string) (label, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 || idx == len(line)-1 {
		return "", "", false
	}
	label = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if label == "" || value == "" {
		return "", "", false
	}
	return label, value, true
}

// Package extract pulls per-page text and basic metadata out of fetched
// source documents.
package extract

import (
	"bytes"
	"strings"

	"github.com/ryedale/bookvec/internal/chunk"
)

// Book is the extraction result for one source document.
type Book struct {
	Title     string
	Author    string
	PageCount int
	Pages     chunk.PageText
}

// Extractor turns raw document bytes into per-page text and metadata.
type Extractor interface {
	Extract(data []byte) (*Book, error)
}

// Detect picks an extractor from the response content type, falling back
// to sniffing the payload. Anything that is not a PDF is treated as
// markdown/plain text (OCR corpora commonly ship .md or .txt
// transcriptions next to the scans).
func Detect(contentType string, data []byte) Extractor {
	if strings.Contains(contentType, "application/pdf") || bytes.HasPrefix(data, []byte("%PDF-")) {
		return NewPDF()
	}
	return NewMarkdown()
}

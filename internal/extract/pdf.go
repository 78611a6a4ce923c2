package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/ryedale/bookvec/internal/chunk"
)

// PDF extracts page text and document-information metadata from PDF
// files.
type PDF struct{}

// NewPDF creates a PDF extractor.
func NewPDF() *PDF {
	return &PDF{}
}

// Extract reads every page's plain text. Pages whose text cannot be
// decoded come back as empty strings rather than failing the whole
// document; only an unreadable file is an error.
func (e *PDF) Extract(data []byte) (*Book, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	pages := make(chunk.PageText, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages[i] = ""
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages[i] = ""
			continue
		}
		pages[i] = text
	}

	title, author := documentInfo(reader)
	return &Book{
		Title:     title,
		Author:    author,
		PageCount: total,
		Pages:     pages,
	}, nil
}

// documentInfo reads Title and Author from the PDF trailer's Info
// dictionary. Missing entries come back empty; callers apply fallbacks.
func documentInfo(reader *pdf.Reader) (title, author string) {
	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return "", ""
	}
	if v := info.Key("Title"); !v.IsNull() {
		title = v.Text()
	}
	if v := info.Key("Author"); !v.IsNull() {
		author = v.Text()
	}
	return title, author
}

var _ Extractor = (*PDF)(nil)

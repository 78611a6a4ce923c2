package extract

import (
	"strings"
	"testing"
)

// TestDetect verifies content-type routing and payload sniffing.
func TestDetect(t *testing.T) {
	if _, ok := Detect("application/pdf", nil).(*PDF); !ok {
		t.Error("application/pdf should select the PDF extractor")
	}
	if _, ok := Detect("application/octet-stream", []byte("%PDF-1.7\n")).(*PDF); !ok {
		t.Error("%PDF magic bytes should select the PDF extractor")
	}
	if _, ok := Detect("text/markdown", []byte("# Title")).(*Markdown); !ok {
		t.Error("text/markdown should select the markdown extractor")
	}
	if _, ok := Detect("text/plain", []byte("plain words")).(*Markdown); !ok {
		t.Error("text/plain should select the markdown extractor")
	}
}

// TestMarkdown_Extract verifies title detection and text flattening.
func TestMarkdown_Extract(t *testing.T) {
	input := `# The Voyage of the Beagle

First paragraph of the chapter. It has two sentences.

Second paragraph continues **with emphasis** here.
`

	book, err := NewMarkdown().Extract([]byte(input))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if book.Title != "The Voyage of the Beagle" {
		t.Errorf("Title: got %q", book.Title)
	}
	if book.PageCount != 1 || len(book.Pages) != 1 {
		t.Errorf("Expected a single page, got count=%d pages=%d", book.PageCount, len(book.Pages))
	}

	text := book.Pages[1]
	if !strings.Contains(text, "First paragraph of the chapter.") {
		t.Errorf("Missing paragraph text: %q", text)
	}
	if !strings.Contains(text, "with emphasis") {
		t.Errorf("Emphasis content lost: %q", text)
	}
	if strings.Contains(text, "**") || strings.Contains(text, "# ") {
		t.Errorf("Markdown syntax leaked into plain text: %q", text)
	}
}

// TestMarkdown_NoHeading verifies a heading-less document gets no title.
func TestMarkdown_NoHeading(t *testing.T) {
	book, err := NewMarkdown().Extract([]byte("Just prose, no headings at all."))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if book.Title != "" {
		t.Errorf("Expected empty title, got %q", book.Title)
	}
	if !strings.Contains(book.Pages[1], "Just prose") {
		t.Errorf("Text lost: %q", book.Pages[1])
	}
}

// TestPDF_Malformed verifies unreadable bytes surface an error instead of
// a panic or empty book.
func TestPDF_Malformed(t *testing.T) {
	if _, err := NewPDF().Extract([]byte("definitely not a pdf")); err == nil {
		t.Error("Expected an error for malformed PDF input")
	}
}

package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"

	"github.com/ryedale/bookvec/internal/chunk"
)

// Markdown extracts plain text from markdown or plain-text transcriptions.
// The whole document becomes a single page; the first top-level heading,
// when present, is used as the title.
type Markdown struct {
	parser goldmark.Markdown
}

// NewMarkdown creates a markdown extractor configured with goldmark.
func NewMarkdown() *Markdown {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Markdown{parser: md}
}

// Extract parses the source and flattens it to plain text, dropping
// markdown structure so the chunker sees prose only.
func (e *Markdown) Extract(data []byte) (*Book, error) {
	reader := text.NewReader(data)
	doc := e.parser.Parser().Parse(reader)

	title := e.documentTitle(doc, data)

	var buf strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(data))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte('\n')
				}
			}
			return ast.WalkContinue, nil
		}
		// Blank line between blocks keeps sentences apart after
		// whitespace normalization.
		switch n.Kind() {
		case ast.KindParagraph, ast.KindHeading, ast.KindListItem, ast.KindBlockquote:
			buf.WriteByte('\n')
		}
		return ast.WalkContinue, nil
	})

	return &Book{
		Title:     title,
		PageCount: 1,
		Pages:     chunk.PageText{1: buf.String()},
	}, nil
}

// documentTitle returns the first top-level heading, if any.
func (e *Markdown) documentTitle(doc ast.Node, source []byte) string {
	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(1),
		toc.Compact(true),
	)
	if err != nil || len(tree.Items) == 0 {
		return ""
	}
	return string(tree.Items[0].Title)
}

var _ Extractor = (*Markdown)(nil)

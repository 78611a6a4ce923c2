// Package pipeline orchestrates book processing end to end: check,
// fetch, extract, chunk, embed, persist.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ryedale/bookvec/internal/chunk"
	"github.com/ryedale/bookvec/internal/embed"
	"github.com/ryedale/bookvec/internal/extract"
	"github.com/ryedale/bookvec/internal/fetch"
	"github.com/ryedale/bookvec/internal/storage"
)

// Metadata fallbacks applied when a source carries none.
const (
	UnknownTitle  = "Unknown Title"
	UnknownAuthor = "Unknown Author"
)

// Status is the terminal state of one document's run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Result is the outcome of processing one document.
type Result struct {
	URL      string
	Status   Status
	BookID   string
	Passages int
	Err      error
	FailedAt time.Time
}

// Fetcher retrieves one raw source document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Book, error)
}

// Config carries the per-batch processing knobs.
type Config struct {
	// MaxWords is the passage size handed to the chunker.
	MaxWords int

	// SkipFirstPage drops page 1 of multi-page documents before
	// chunking (cover pages carry no searchable prose). Single-page
	// documents always keep their only page. Off by default.
	SkipFirstPage bool
}

// Pipeline runs the per-document state machine. The fetcher, provider
// and store are shared across all concurrent runs; everything a single
// run produces stays private to it.
type Pipeline struct {
	fetcher  Fetcher
	chunker  chunk.Chunker
	provider embed.Provider
	store    storage.Store
	cfg      Config
	logger   *slog.Logger
}

// New creates a pipeline with the given collaborators.
func New(
	fetcher Fetcher,
	chunker chunk.Chunker,
	provider embed.Provider,
	store storage.Store,
	cfg Config,
	logger *slog.Logger,
) *Pipeline {
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = 400
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		fetcher:  fetcher,
		chunker:  chunker,
		provider: provider,
		store:    store,
		cfg:      cfg,
		logger:   logger,
	}
}

// Process runs one document through check → fetch → extract → chunk →
// embed → save. Failures never propagate; they come back as data in the
// Result so sibling documents keep running.
func (p *Pipeline) Process(ctx context.Context, url string) Result {
	result, err := p.process(ctx, url)
	if err != nil {
		p.logger.Warn("Book processing failed", "url", url, "error", err)
		return Result{
			URL:      url,
			Status:   StatusFailed,
			Err:      err,
			FailedAt: time.Now().UTC(),
		}
	}
	return result
}

func (p *Pipeline) process(ctx context.Context, url string) (Result, error) {
	table := p.provider.TableName()

	// Check: already embedded by this provider?
	exists, err := p.store.BookExists(ctx, url, table)
	if err != nil {
		return Result{}, fmt.Errorf("existence check: %w", err)
	}
	if exists {
		p.logger.Info("Book already embedded, skipping", "url", url, "provider", p.provider.Name())
		return Result{URL: url, Status: StatusSkipped}, nil
	}

	// Fetch.
	fetched, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return Result{}, fmt.Errorf("fetch: %w", err)
	}
	if !fetched.Available {
		return Result{}, fmt.Errorf("fetch: source returned status %d", fetched.Status)
	}

	// Extract per-page text and metadata.
	extractor := extract.Detect(fetched.ContentType, fetched.Data)
	book, err := extractor.Extract(fetched.Data)
	if err != nil {
		return Result{}, fmt.Errorf("extract: %w", err)
	}

	title := book.Title
	if title == "" {
		title = UnknownTitle
	}
	author := book.Author
	if author == "" {
		author = UnknownAuthor
	}

	pages := book.Pages
	if p.cfg.SkipFirstPage {
		pages = trimFirstPage(pages)
	}

	// Chunk, then embed each passage sequentially. Concurrency lives at
	// the batch level only, so outstanding embedding calls stay bounded
	// by the document limit.
	passages := p.chunker.ProcessDocument(pages, p.cfg.MaxWords, title)
	chunks := make([]storage.Chunk, 0, len(passages))
	for i, passage := range passages {
		text := sanitizeText(passage.Text)
		vector, err := p.provider.Embed(ctx, text)
		if err != nil {
			return Result{}, fmt.Errorf("embed passage %d: %w", i, err)
		}
		chunks = append(chunks, storage.Chunk{
			Page:      passage.Page,
			Position:  i,
			Text:      text,
			Embedding: vector,
		})
	}

	// Save into the provider's partition.
	stored := &storage.Book{
		URL:       url,
		Title:     title,
		Author:    author,
		PageCount: book.PageCount,
		Chunks:    chunks,
	}
	bookID, err := p.store.SaveBook(ctx, stored, table)
	if err != nil {
		return Result{}, fmt.Errorf("save: %w", err)
	}

	p.logger.Info("Book processed", "url", url, "book_id", bookID, "passages", len(chunks))
	return Result{
		URL:      url,
		Status:   StatusSucceeded,
		BookID:   bookID,
		Passages: len(chunks),
	}, nil
}

// trimFirstPage drops page 1 of a multi-page document. Single-page
// documents keep their only page; dropping it would leave nothing to
// chunk.
func trimFirstPage(pages chunk.PageText) chunk.PageText {
	if len(pages) <= 1 {
		return pages
	}
	trimmed := make(chunk.PageText, len(pages)-1)
	for n, text := range pages {
		if n == 1 {
			continue
		}
		trimmed[n] = text
	}
	return trimmed
}

// sanitizeText flattens a passage to the plain string the persistence
// layer requires: valid UTF-8 with NUL bytes stripped (Postgres rejects
// both in text columns). Malformed passages are normalized here rather
// than surfaced as errors.
func sanitizeText(text string) string {
	text = strings.ToValidUTF8(text, "")
	return strings.ReplaceAll(text, "\x00", "")
}

// Package storage persists books and their embedded passages.
//
// Every embedding provider writes to its own partition (a Postgres table
// or a Qdrant collection), sized to that provider's vector width. Mixing
// widths in one partition is a hard error, never silently accepted.
package storage

import (
	"context"
	"fmt"
	"time"
)

// Book is one processed document ready to persist. URL is the unique
// idempotency key: saving the same URL twice reuses the existing book
// identity instead of creating a duplicate.
type Book struct {
	ID        string
	URL       string
	Title     string
	Author    string
	PageCount int
	CreatedAt time.Time
	Chunks    []Chunk
}

// Chunk is one passage with its embedding, ordered by Position within the
// book.
type Chunk struct {
	Page      int
	Position  int
	Text      string
	Embedding []float32
}

// Store is the persistence contract consumed by the pipeline. The table
// argument designates a provider partition, so existence checks are keyed
// by (url, provider).
type Store interface {
	// EnsureSchema idempotently prepares the partition for vectors of
	// the given width. Must be called before BookExists/SaveBook for
	// that partition.
	EnsureSchema(ctx context.Context, table string, dimension int) error

	// BookExists reports whether the book at url already has chunks in
	// the given partition.
	BookExists(ctx context.Context, url, table string) (bool, error)

	// SaveBook persists the book and all its chunks into the partition
	// and returns the book's id.
	SaveBook(ctx context.Context, book *Book, table string) (string, error)

	Close() error
}

// validateChunks rejects a book whose chunk vectors do not all match the
// partition's dimension.
func validateChunks(book *Book, dimension int) error {
	for i, chunk := range book.Chunks {
		if len(chunk.Embedding) != dimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, partition expects %d",
				ErrDimensionMismatch, i, len(chunk.Embedding), dimension)
		}
	}
	return nil
}

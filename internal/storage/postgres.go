package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres persists books into PostgreSQL with pgvector columns, one
// chunk table per embedding provider. The underlying *sql.DB is a
// connection pool safe for concurrent checkout: each pipeline run takes
// a connection only for the duration of its check and save calls.
type Postgres struct {
	db *sql.DB

	mu         sync.RWMutex
	dimensions map[string]int // partition table -> ensured vector width
}

// NewPostgres opens and pings the pool.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return &Postgres{
		db:         db,
		dimensions: make(map[string]int),
	}, nil
}

// EnsureSchema creates the shared books table and the provider's chunk
// table if missing. Safe to call multiple times.
func (p *Postgres) EnsureSchema(ctx context.Context, table string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dimension)
	}

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS books (
			id          uuid PRIMARY KEY,
			url         text NOT NULL UNIQUE,
			title       text NOT NULL,
			author      text NOT NULL,
			page_count  int  NOT NULL,
			created_at  timestamptz NOT NULL DEFAULT now()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id          uuid PRIMARY KEY,
			book_id     uuid NOT NULL REFERENCES books(id) ON DELETE CASCADE,
			page        int  NOT NULL,
			position    int  NOT NULL,
			text        text NOT NULL,
			embedding   vector(%d) NOT NULL,
			created_at  timestamptz NOT NULL DEFAULT now()
		)`, table, dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_book_id_idx ON %s (book_id)`, table, table),
	}

	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema for %s: %w", table, err)
		}
	}

	p.mu.Lock()
	p.dimensions[table] = dimension
	p.mu.Unlock()
	return nil
}

// BookExists reports whether the URL already has chunks in the provider's
// partition.
func (p *Postgres) BookExists(ctx context.Context, url, table string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1
			FROM %s c
			JOIN books b ON b.id = c.book_id
			WHERE b.url = $1
		)`, table)

	var exists bool
	if err := p.db.QueryRowContext(ctx, query, url).Scan(&exists); err != nil {
		return false, fmt.Errorf("existence check for %s: %w", url, err)
	}
	return exists, nil
}

// SaveBook upserts the book row keyed by URL (reusing the existing id on
// reprocessing) and inserts all chunks into the partition, in one
// transaction.
func (p *Postgres) SaveBook(ctx context.Context, book *Book, table string) (string, error) {
	p.mu.RLock()
	dimension, ok := p.dimensions[table]
	p.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPartition, table)
	}
	if err := validateChunks(book, dimension); err != nil {
		return "", err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// ON CONFLICT keeps the original identity so reprocessing under a
	// different provider never duplicates the book row.
	const upsertBook = `
		INSERT INTO books (id, url, title, author, page_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO UPDATE SET url = EXCLUDED.url
		RETURNING id`

	var bookID string
	err = tx.QueryRowContext(ctx, upsertBook,
		uuid.New().String(), book.URL, book.Title, book.Author, book.PageCount,
	).Scan(&bookID)
	if err != nil {
		return "", fmt.Errorf("upsert book %s: %w", book.URL, err)
	}

	insertChunk := fmt.Sprintf(`
		INSERT INTO %s (id, book_id, page, position, text, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)`, table)

	stmt, err := tx.PrepareContext(ctx, insertChunk)
	if err != nil {
		return "", fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for i := range book.Chunks {
		chunk := &book.Chunks[i]
		vec := pgvector.NewVector(chunk.Embedding)
		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), bookID, chunk.Page, chunk.Position, chunk.Text, vec,
		); err != nil {
			return "", fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit book %s: %w", book.URL, err)
	}
	return bookID, nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

var _ Store = (*Postgres)(nil)

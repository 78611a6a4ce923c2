// Package fetch retrieves raw source documents over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single document fetch.
const DefaultTimeout = 30 * time.Second

// maxDocumentBytes caps how much of a response body is read (512 MB);
// scanned books are large but not unbounded.
const maxDocumentBytes = 512 << 20

// Book is one fetched source document. Available is false when the
// source answered with a non-2xx status; that is a lookup result, not a
// transport error.
type Book struct {
	URL         string
	ContentType string
	Status      int
	Available   bool
	Data        []byte
}

// Fetcher downloads documents with a shared HTTP client and a per-request
// timeout. One Fetcher is shared across all concurrent pipeline runs.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Fetcher. A non-positive timeout falls back to
// DefaultTimeout.
func New(timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:  &http.Client{},
		timeout: timeout,
		logger:  logger,
	}
}

// Fetch downloads one document. Transport failures and timeouts return an
// error; non-2xx responses return a Book with Available=false and no
// error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Book, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn("Document not available", "url", url, "status", resp.StatusCode)
		return &Book{
			URL:       url,
			Status:    resp.StatusCode,
			Available: false,
		}, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	f.logger.Debug("Fetched document", "url", url, "size", len(data))

	return &Book{
		URL:         url,
		ContentType: resp.Header.Get("Content-Type"),
		Status:      resp.StatusCode,
		Available:   true,
		Data:        data,
	}, nil
}

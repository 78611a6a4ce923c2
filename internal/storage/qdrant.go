package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// Qdrant is the alternate vector-store backend. Each embedding provider
// gets its own collection, which plays the role of the provider partition
// and pins that provider's vector width.
type Qdrant struct {
	client *qdrant.Client

	mu         sync.RWMutex
	dimensions map[string]int // collection -> ensured vector width
}

// NewQdrant connects to Qdrant and verifies health with retry, failing
// fast if the server stays unreachable.
func NewQdrant(host string, port int) (*Qdrant, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	store := &Qdrant{
		client:     client,
		dimensions: make(map[string]int),
	}

	if err := store.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return store, nil
}

// healthCheckWithRetry probes the server with exponential backoff:
// 500ms initial, 10s max interval, 30s max elapsed.
func (s *Qdrant) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		result, err := s.client.HealthCheck(ctx)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		if result == nil || result.Title == "" {
			return fmt.Errorf("health check returned invalid response")
		}
		return nil
	}, backoff.WithContext(b, ctx))
}

// EnsureSchema creates the provider's collection with the given vector
// width and a keyword index on url. Idempotent.
func (s *Qdrant) EnsureSchema(ctx context.Context, table string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dimension)
	}

	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	exists := false
	for _, name := range collections {
		if name == table {
			exists = true
			break
		}
	}

	if !exists {
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: table,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dimension),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("create collection %s: %w", table, err)
		}

		// Without the index the idempotency filter is a full scan.
		_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: table,
			FieldName:      "url",
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("create url index on %s: %w", table, err)
		}
	}

	s.mu.Lock()
	s.dimensions[table] = dimension
	s.mu.Unlock()
	return nil
}

// BookExists counts points carrying the URL in the provider's collection.
func (s *Qdrant) BookExists(ctx context.Context, url, table string) (bool, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: table,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("url", url),
			},
		},
	})
	if err != nil {
		return false, fmt.Errorf("existence check for %s: %w", url, err)
	}
	return count > 0, nil
}

// SaveBook upserts every chunk as one point. Point ids derive
// deterministically from (url, position), so re-saving the same book
// overwrites rather than duplicates.
func (s *Qdrant) SaveBook(ctx context.Context, book *Book, table string) (string, error) {
	s.mu.RLock()
	dimension, ok := s.dimensions[table]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPartition, table)
	}
	if err := validateChunks(book, dimension); err != nil {
		return "", err
	}

	bookID := uuid.NewSHA1(uuid.NameSpaceURL, []byte(book.URL)).String()

	points := make([]*qdrant.PointStruct, len(book.Chunks))
	for i := range book.Chunks {
		chunk := &book.Chunks[i]
		pointID := uuid.NewSHA1(uuid.NameSpaceURL,
			[]byte(fmt.Sprintf("%s#%d", book.URL, chunk.Position))).String()
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID),
			Vectors: qdrant.NewVectors(chunk.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"book_id":    bookID,
				"url":        book.URL,
				"title":      book.Title,
				"author":     book.Author,
				"page_count": book.PageCount,
				"page":       chunk.Page,
				"position":   chunk.Position,
				"text":       chunk.Text,
			}),
		}
	}

	// Batch upserts in groups of 100.
	const batchSize = 100
	for i := 0; i < len(points); i += batchSize {
		end := i + batchSize
		if end > len(points) {
			end = len(points)
		}
		if err := s.upsertWithRetry(ctx, table, points[i:end]); err != nil {
			return "", fmt.Errorf("upsert batch %d-%d: %w", i, end, err)
		}
	}

	return bookID, nil
}

// upsertWithRetry retries transient upsert failures with exponential
// backoff.
func (s *Qdrant) upsertWithRetry(ctx context.Context, table string, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: table,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Close closes the client connection.
func (s *Qdrant) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

var _ Store = (*Qdrant)(nil)

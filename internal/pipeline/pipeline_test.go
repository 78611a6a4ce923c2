package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryedale/bookvec/internal/chunk"
	"github.com/ryedale/bookvec/internal/embed"
	"github.com/ryedale/bookvec/internal/fetch"
	"github.com/ryedale/bookvec/internal/storage"
)

// fakeFetcher serves canned responses per URL.
type fakeFetcher struct {
	responses map[string]*fetch.Book
	errs      map[string]error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*fetch.Book, error) {
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if book, ok := f.responses[url]; ok {
		return book, nil
	}
	return &fetch.Book{URL: url, Status: 404, Available: false}, nil
}

// fakeStore keeps saved books in memory, keyed by table then URL.
type fakeStore struct {
	mu     sync.Mutex
	tables map[string]map[string]*storage.Book
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{tables: make(map[string]map[string]*storage.Book)}
}

func (s *fakeStore) EnsureSchema(_ context.Context, table string, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tables[table] == nil {
		s.tables[table] = make(map[string]*storage.Book)
	}
	return nil
}

func (s *fakeStore) BookExists(_ context.Context, url, table string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tables[table][url]
	return ok, nil
}

func (s *fakeStore) SaveBook(_ context.Context, book *storage.Book, table string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tables[table] == nil {
		return "", storage.ErrUnknownPartition
	}
	s.nextID++
	id := fmt.Sprintf("book-%d", s.nextID)
	book.ID = id
	s.tables[table][book.URL] = book
	return id, nil
}

func (s *fakeStore) Close() error { return nil }

func markdownBook(url, body string) *fetch.Book {
	return &fetch.Book{
		URL:         url,
		ContentType: "text/markdown",
		Status:      200,
		Available:   true,
		Data:        []byte(body),
	}
}

func newTestPipeline(t *testing.T, fetcher Fetcher, store storage.Store) *Pipeline {
	t.Helper()
	provider := embed.NewLocal()
	require.NoError(t, store.EnsureSchema(context.Background(), provider.TableName(), provider.Dimension()))
	return New(
		fetcher,
		chunk.NewSentenceSplitter(),
		provider,
		store,
		Config{MaxWords: 50},
		slog.New(slog.DiscardHandler),
	)
}

func TestProcess_Succeeds(t *testing.T) {
	const url = "https://books.example/alpha.md"
	fetcher := &fakeFetcher{responses: map[string]*fetch.Book{
		url: markdownBook(url, "# Field Notes\n\nThe tide came in early. Gulls circled the pier until dusk."),
	}}
	store := newFakeStore()
	p := newTestPipeline(t, fetcher, store)

	result := p.Process(context.Background(), url)

	require.Equal(t, StatusSucceeded, result.Status)
	assert.NotEmpty(t, result.BookID)
	assert.Greater(t, result.Passages, 0)

	saved := store.tables[p.provider.TableName()][url]
	require.NotNil(t, saved)
	assert.Equal(t, "Field Notes", saved.Title)
	assert.Equal(t, UnknownAuthor, saved.Author)
	assert.Len(t, saved.Chunks, result.Passages)
	for _, c := range saved.Chunks {
		assert.Len(t, c.Embedding, p.provider.Dimension())
	}
}

func TestProcess_UnavailableSourceFails(t *testing.T) {
	const url = "https://books.example/missing.md"
	p := newTestPipeline(t, &fakeFetcher{}, newFakeStore())

	result := p.Process(context.Background(), url)

	assert.Equal(t, StatusFailed, result.Status)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "status 404")
	assert.False(t, result.FailedAt.IsZero())
}

func TestProcess_FetchErrorFails(t *testing.T) {
	const url = "https://books.example/slow.md"
	fetcher := &fakeFetcher{errs: map[string]error{
		url: fmt.Errorf("fetching %s: %w", url, context.DeadlineExceeded),
	}}
	p := newTestPipeline(t, fetcher, newFakeStore())

	result := p.Process(context.Background(), url)

	assert.Equal(t, StatusFailed, result.Status)
	assert.ErrorIs(t, result.Err, context.DeadlineExceeded)
}

func TestProcess_SkipsAlreadyEmbedded(t *testing.T) {
	const url = "https://books.example/alpha.md"
	fetcher := &fakeFetcher{responses: map[string]*fetch.Book{
		url: markdownBook(url, "# Field Notes\n\nThe tide came in early."),
	}}
	store := newFakeStore()
	p := newTestPipeline(t, fetcher, store)

	first := p.Process(context.Background(), url)
	require.Equal(t, StatusSucceeded, first.Status)

	second := p.Process(context.Background(), url)
	assert.Equal(t, StatusSkipped, second.Status)
	assert.NoError(t, second.Err)
}

func TestTrimFirstPage(t *testing.T) {
	multi := chunk.PageText{1: "Cover page noise.", 2: "Chapter one.", 3: "Chapter two."}
	trimmed := trimFirstPage(multi)
	assert.Equal(t, chunk.PageText{2: "Chapter one.", 3: "Chapter two."}, trimmed)

	single := chunk.PageText{1: "Everything on one page."}
	assert.Equal(t, single, trimFirstPage(single))
}

func TestProcessAll_CollectsFailures(t *testing.T) {
	urls := []string{
		"https://books.example/a.md",
		"https://books.example/broken.md",
		"https://books.example/c.md",
	}
	fetcher := &fakeFetcher{
		responses: map[string]*fetch.Book{
			urls[0]: markdownBook(urls[0], "# A\n\nFirst book text."),
			urls[2]: markdownBook(urls[2], "# C\n\nThird book text."),
		},
		errs: map[string]error{
			urls[1]: errors.New("connection reset"),
		},
	}
	p := newTestPipeline(t, fetcher, newFakeStore())

	summary := p.ProcessAll(context.Background(), urls, 2)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, summary.Total, summary.Succeeded+summary.Failed+summary.Skipped)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, urls[1], summary.Failures[0].URL)
	assert.Contains(t, summary.Failures[0].Err.Error(), "connection reset")
}

func TestProcessAll_SkipsCountedSeparately(t *testing.T) {
	const url = "https://books.example/a.md"
	fetcher := &fakeFetcher{responses: map[string]*fetch.Book{
		url: markdownBook(url, "# A\n\nSome text."),
	}}
	store := newFakeStore()
	p := newTestPipeline(t, fetcher, store)

	first := p.ProcessAll(context.Background(), []string{url}, 1)
	require.Equal(t, 1, first.Succeeded)

	second := p.ProcessAll(context.Background(), []string{url}, 1)
	assert.Equal(t, 1, second.Total)
	assert.Equal(t, 0, second.Succeeded)
	assert.Equal(t, 1, second.Skipped)
	assert.Empty(t, second.Failures)
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "clean text", sanitizeText("clean text"))
	assert.Equal(t, "ab", sanitizeText("a\x00b"))
	assert.Equal(t, "ok", sanitizeText("ok\xff"))
}

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer server.Close()

	f := New(time.Second, nil)
	book, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.True(t, book.Available)
	assert.Equal(t, http.StatusOK, book.Status)
	assert.Equal(t, "application/pdf", book.ContentType)
	assert.Equal(t, []byte("%PDF-1.4 fake"), book.Data)
}

func TestFetch_NotFoundIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := New(time.Second, nil)
	book, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err, "non-2xx must be an explicit not-available signal, not an error")

	assert.False(t, book.Available)
	assert.Equal(t, http.StatusNotFound, book.Status)
	assert.Empty(t, book.Data)
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	f := New(50*time.Millisecond, nil)
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetch_TransportError(t *testing.T) {
	f := New(time.Second, nil)
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/nothing-here")
	require.Error(t, err)
}

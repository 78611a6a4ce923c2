// Package embed generates fixed-width embedding vectors for passages.
//
// Each provider owns its vector width and its storage partition name, so
// vectors of different dimensionality can never land in the same
// searchable collection.
package embed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Provider is one embedding backend.
type Provider interface {
	// Embed returns the vector for one passage of text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name identifies the provider in idempotency checks and config.
	Name() string

	// TableName is the storage partition this provider's vectors go to.
	TableName() string

	// Dimension is the width of every vector this provider produces.
	Dimension() int
}

// Factory builds a provider. Constructors that need network clients read
// their credentials from the environment.
type Factory func(ctx context.Context) (Provider, error)

var registry = map[string]Factory{
	"openai": func(ctx context.Context) (Provider, error) { return NewOpenAI() },
	"gemini": func(ctx context.Context) (Provider, error) { return NewGemini(ctx, "") },
	"local":  func(ctx context.Context) (Provider, error) { return NewLocal(), nil },
}

// New builds the provider registered under name.
func New(ctx context.Context, name string) (Provider, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown embedding provider %q (have %v)", name, Names())
	}
	return factory(ctx)
}

// Names lists the registered provider names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newRetryBackOff configures the retry policy shared by the HTTP-backed
// providers: exponential, 500ms initial, 10s max interval, 30s elapsed.
func newRetryBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return backoff.WithContext(b, ctx)
}

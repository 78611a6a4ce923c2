package embed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// openAIModel is the embedding model used in production.
	openAIModel = "text-embedding-3-small"

	// openAIDimension is the vector width of text-embedding-3-small.
	openAIDimension = 1536
)

// OpenAI embeds passages with OpenAI's text-embedding-3-small model. Rate
// limit errors are retried with exponential backoff; everything else
// fails immediately with the cause preserved.
type OpenAI struct {
	client *openai.Client
}

// NewOpenAI creates the production provider. It requires OPENAI_API_KEY
// in the environment.
func NewOpenAI() (*OpenAI, error) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	// openai-go reads OPENAI_API_KEY from the environment itself
	client := openai.NewClient()
	return &OpenAI{client: &client}, nil
}

func (o *OpenAI) Name() string      { return "openai" }
func (o *OpenAI) TableName() string { return "book_chunks_openai" }
func (o *OpenAI) Dimension() int    { return openAIDimension }

// Embed requests one embedding, retrying rate-limited calls.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32

	operation := func() error {
		resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: []string{text},
			},
			Model: openAIModel,
		})
		if err != nil {
			if isRateLimitError(err) {
				return err // retried with backoff
			}
			return backoff.Permanent(err)
		}
		if len(resp.Data) != 1 {
			return backoff.Permanent(fmt.Errorf("expected 1 embedding, got %d", len(resp.Data)))
		}
		vector = toFloat32(resp.Data[0].Embedding)
		return nil
	}

	if err := backoff.Retry(operation, newRetryBackOff(ctx)); err != nil {
		// Keep the underlying cause inspectable: a timeout must still
		// read as a timeout after wrapping.
		return nil, fmt.Errorf("openai embedding: %w", err)
	}
	return vector, nil
}

// isRateLimitError checks for HTTP 429 responses.
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts the API's float64 vector to the storage width.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}

var _ Provider = (*OpenAI)(nil)

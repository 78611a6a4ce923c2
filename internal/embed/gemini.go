package embed

import (
	"context"
	"fmt"
	"os"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	// geminiModel is the alternate HTTP-backed embedding model.
	geminiModel = "text-embedding-004"

	// geminiDimension is the vector width of text-embedding-004.
	geminiDimension = 768
)

// Gemini embeds passages with Google's text-embedding-004 model. Its
// vectors are narrower than OpenAI's, so it persists into its own
// partition.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates the alternate provider. apiKey falls back to the
// GEMINI_API_KEY environment variable.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{client: client, model: geminiModel}, nil
}

func (g *Gemini) Name() string      { return "gemini" }
func (g *Gemini) TableName() string { return "book_chunks_gemini" }
func (g *Gemini) Dimension() int    { return geminiDimension }

// Embed requests one embedding with the shared retry policy.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	model := g.client.EmbeddingModel(g.model)

	var vector []float32
	operation := func() error {
		resp, err := model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return err
		}
		if resp.Embedding == nil {
			return backoff.Permanent(fmt.Errorf("empty embedding response"))
		}
		vector = resp.Embedding.Values
		return nil
	}

	if err := backoff.Retry(operation, newRetryBackOff(ctx)); err != nil {
		return nil, fmt.Errorf("gemini embedding: %w", err)
	}
	return vector, nil
}

// Close releases the underlying API client.
func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

var _ Provider = (*Gemini)(nil)

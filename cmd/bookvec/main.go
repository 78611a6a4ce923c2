// Package main provides the bookvec CLI for book digitization and
// embedding.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ryedale/bookvec/internal/chunk"
	"github.com/ryedale/bookvec/internal/config"
	"github.com/ryedale/bookvec/internal/corpus"
	"github.com/ryedale/bookvec/internal/embed"
	"github.com/ryedale/bookvec/internal/fetch"
	"github.com/ryedale/bookvec/internal/pipeline"
	"github.com/ryedale/bookvec/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "bookvec",
	Short: "Book digitization and embedding tool",
	Long:  "CLI tool for fetching books, chunking their text and storing embeddings",
}

var (
	inputPath     string
	githubRepo    string
	githubPath    string
	providerName  string
	strategyName  string
	maxWords      int
	concurrency   int
	retryOut      string
	skipFirstPage bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Fetch, chunk, embed and store a list of books",
	Long: `Processes every book URL in the input manifest through the full
pipeline: fetch, text extraction, chunking, embedding, storage.

Books already stored for the chosen provider are skipped, so the
command is safe to re-run with the same manifest.

Environment variables:
  STORAGE_BACKEND  "postgres" or "qdrant" (default: postgres)
  DATABASE_URL     Postgres connection string (postgres backend)
  QDRANT_HOST      Qdrant hostname (default: localhost)
  QDRANT_PORT      Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY   OpenAI API key (openai provider)
  GEMINI_API_KEY   Gemini API key (gemini provider)
  GITHUB_TOKEN     GitHub token for manifest listing (optional)`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to a manifest file with one book URL per line")
	processCmd.Flags().StringVar(&githubRepo, "github-repo", "", "owner/repo to read .txt manifests from instead of --input")
	processCmd.Flags().StringVar(&githubPath, "github-path", "", "directory inside --github-repo holding the manifests")
	processCmd.Flags().StringVarP(&providerName, "provider", "p", "", "embedding provider: "+strings.Join(embed.Names(), ", "))
	processCmd.Flags().StringVarP(&strategyName, "strategy", "s", "", "chunking strategy: sentence or overlap")
	processCmd.Flags().IntVar(&maxWords, "max-words", 0, "maximum words per passage")
	processCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "number of books processed in parallel")
	processCmd.Flags().StringVar(&retryOut, "retry-out", "", "write failed URLs to this file for a retry run")
	processCmd.Flags().BoolVar(&skipFirstPage, "skip-first-page", false, "drop page 1 of multi-page books before chunking")
	rootCmd.AddCommand(processCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	cfg := config.Load()
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// 1. Resolve the URL list.
	urls, err := loadURLs(ctx)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		fmt.Println("No book URLs to process")
		return nil
	}
	fmt.Printf("Processing %d books...\n", len(urls))
	fmt.Println()

	// 2. Connect storage.
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// 3. Embedding provider.
	provider, err := embed.New(ctx, cfg.Provider)
	if err != nil {
		return fmt.Errorf("creating embedding provider: %w", err)
	}
	fmt.Printf("Provider: %s (%d dimensions)\n", provider.Name(), provider.Dimension())

	if err := store.EnsureSchema(ctx, provider.TableName(), provider.Dimension()); err != nil {
		return fmt.Errorf("preparing storage schema: %w", err)
	}

	// 4. Chunking strategy.
	chunker, err := newChunker(cfg.Strategy)
	if err != nil {
		return err
	}
	fmt.Printf("Strategy: %s, max %d words per passage\n", cfg.Strategy, cfg.MaxWords)

	// 5. Run the pipeline.
	fetcher := fetch.New(cfg.FetchTimeout, logger)
	p := pipeline.New(fetcher, chunker, provider, store, pipeline.Config{
		MaxWords:      cfg.MaxWords,
		SkipFirstPage: cfg.SkipFirstPage,
	}, logger)

	summary := p.ProcessAll(ctx, urls, cfg.Concurrency)

	// 6. Print results.
	fmt.Println()
	fmt.Println("Run complete!")
	fmt.Printf("  Books: %d/%d succeeded\n", summary.Succeeded, summary.Total)
	fmt.Printf("  Skipped: %d (already stored)\n", summary.Skipped)
	fmt.Printf("  Failed: %d\n", summary.Failed)
	fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Second))

	if len(summary.Failures) > 0 {
		fmt.Println()
		fmt.Println("Failed books:")
		for _, f := range summary.Failures {
			fmt.Printf("  - %s: %s\n", f.URL, f.Err)
		}
	}

	// 7. Write the retry manifest.
	if retryOut != "" {
		failed := make([]string, 0, len(summary.Failures))
		for _, f := range summary.Failures {
			failed = append(failed, f.URL)
		}
		if err := corpus.WriteRetryFile(retryOut, failed); err != nil {
			return err
		}
		if len(failed) > 0 {
			fmt.Printf("\nWrote %d failed URLs to %s\n", len(failed), retryOut)
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d books failed", summary.Failed, summary.Total)
	}
	return nil
}

// applyFlags overlays explicitly set command-line flags on the
// environment configuration.
func applyFlags(cfg *config.Config) {
	if providerName != "" {
		cfg.Provider = providerName
	}
	if strategyName != "" {
		cfg.Strategy = strategyName
	}
	if maxWords > 0 {
		cfg.MaxWords = maxWords
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	if skipFirstPage {
		cfg.SkipFirstPage = true
	}
}

func loadURLs(ctx context.Context) ([]string, error) {
	if githubRepo != "" {
		owner, repo, ok := strings.Cut(githubRepo, "/")
		if !ok {
			return nil, fmt.Errorf("invalid --github-repo %q, expected owner/repo", githubRepo)
		}
		client, err := corpus.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating GitHub client: %w", err)
		}
		lister := corpus.NewLister(client, owner, repo, githubPath)
		urls, err := lister.FetchAllURLs(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading manifests from %s: %w", githubRepo, err)
		}
		return urls, nil
	}
	if inputPath == "" {
		return nil, fmt.Errorf("either --input or --github-repo is required")
	}
	return corpus.ReadURLList(inputPath)
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case "postgres":
		fmt.Println("Connecting to Postgres...")
		store, err := storage.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to Postgres: %w", err)
		}
		return store, nil
	case "qdrant":
		fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.QdrantHost, cfg.QdrantPort)
		store, err := storage.NewQdrant(cfg.QdrantHost, cfg.QdrantPort)
		if err != nil {
			return nil, fmt.Errorf("connecting to Qdrant: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %s", storage.ErrUnknownBackend, cfg.StorageBackend)
	}
}

func newChunker(strategy string) (chunk.Chunker, error) {
	switch strategy {
	case "sentence":
		return chunk.NewSentenceSplitter(), nil
	case "overlap":
		return chunk.NewWordOverlap(), nil
	default:
		return nil, fmt.Errorf("unknown chunking strategy %q", strategy)
	}
}

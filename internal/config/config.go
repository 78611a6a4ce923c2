// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything a processing run needs from the environment.
// Command-line flags override individual fields after Load.
type Config struct {
	// Storage.
	StorageBackend string // "postgres" or "qdrant"
	DatabaseURL    string
	QdrantHost     string
	QdrantPort     int

	// Embedding.
	Provider string // "openai", "gemini" or "local"

	// Chunking.
	Strategy string // "sentence" or "overlap"
	MaxWords int

	// Processing.
	Concurrency   int
	FetchTimeout  time.Duration
	SkipFirstPage bool
}

// Load reads configuration from the environment. A .env file is loaded
// first if present and ignored if missing.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		StorageBackend: getEnv("STORAGE_BACKEND", "postgres"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		QdrantHost:     getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:     getEnvInt("QDRANT_PORT", 6334),
		Provider:       getEnv("EMBEDDING_PROVIDER", "openai"),
		Strategy:       getEnv("CHUNK_STRATEGY", "sentence"),
		MaxWords:       getEnvInt("CHUNK_MAX_WORDS", 400),
		Concurrency:    getEnvInt("CONCURRENCY", 4),
		FetchTimeout:   time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		SkipFirstPage:  getEnvBool("SKIP_FIRST_PAGE", false),
	}
}

// Validate checks the combinations a run cannot recover from at runtime.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case "qdrant":
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.MaxWords <= 0 {
		return fmt.Errorf("chunk max words must be positive, got %d", c.MaxWords)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

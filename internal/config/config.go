// Package config provides environment-based configuration for scoutd.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds process-wide configuration for the scoutd daemon.
type Config struct {
	// Ambient HTTP (health/status only — the full surface is out of scope)
	Port     int
	LogLevel string

	// Archive tier (Postgres + pgvector)
	DatabaseURL string

	// Recent-exchanges tier (SQLite, one file per notebook data dir)
	DataDir string

	// Event bus
	NatsURL string

	// Web search / scrape
	SearchBaseURL string
	SearchAPIKey  string

	// Embeddings
	EmbeddingBackend string // "simple" or "openai"
	OpenAIAPIKey     string
	OpenAIModel      string

	// Chat completion
	ChatBackend   string // "simple" or "anthropic"
	AnthropicKey  string
	AnthropicModel string

	// Ambient Orchestrator schedule
	CollectionInterval  time.Duration
	CompressionInterval time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	c := &Config{
		Port:                envInt("SCOUT_PORT", 8600),
		LogLevel:            envStr("SCOUT_LOG_LEVEL", "info"),
		DatabaseURL:         envStr("DATABASE_URL", ""),
		DataDir:             envStr("SCOUT_DATA_DIR", "./data"),
		NatsURL:             envStr("NATS_URL", "nats://localhost:4222"),
		SearchBaseURL:       envStr("SEARCH_BASE_URL", ""),
		SearchAPIKey:        envStr("SEARCH_API_KEY", ""),
		EmbeddingBackend:    envStr("EMBEDDING_BACKEND", "simple"),
		OpenAIAPIKey:        envStr("OPENAI_API_KEY", ""),
		OpenAIModel:         envStr("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		ChatBackend:         envStr("CHAT_BACKEND", "simple"),
		AnthropicKey:        envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:      envStr("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		CollectionInterval:  envDuration("SCOUT_COLLECTION_INTERVAL", 2*time.Hour),
		CompressionInterval: envDuration("SCOUT_COMPRESSION_INTERVAL", 15*time.Minute),
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return c, nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

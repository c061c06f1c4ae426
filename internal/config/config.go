// Package config loads runtime configuration from the environment,
// with .env support for local development.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full runtime configuration.
type Config struct {
	// AnthropicAPIKey enables the oracle-backed classifier and parser.
	// When empty the server still runs: classification reports a clear
	// error and review parsing uses the deterministic matcher.
	AnthropicAPIKey string

	OracleModel   string
	OracleBaseURL string
	OracleTimeout time.Duration

	// DataDir holds the SQLite database.
	DataDir string
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in when present but never overrides
// variables already set.
func Load() Config {
	_ = godotenv.Load()

	home, _ := os.UserHomeDir()
	cfg := Config{
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OracleModel:     envOr("BRAINSTORM_ORACLE_MODEL", "claude-sonnet-4-5-20250929"),
		OracleBaseURL:   envOr("BRAINSTORM_ORACLE_BASE_URL", "https://api.anthropic.com"),
		OracleTimeout:   envDurationOr("BRAINSTORM_ORACLE_TIMEOUT_SECONDS", 30*time.Second),
		DataDir:         envOr("BRAINSTORM_DATA_DIR", filepath.Join(home, ".brainstorm")),
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

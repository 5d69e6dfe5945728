// Package config loads runtime settings from the environment, with an
// optional .env file for development. All variables share the REMEMBOT_
// prefix and every knob has a usable default, so an empty environment
// yields a working local setup.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings
type Config struct {
	// Storage
	DatabasePath string `env:"DATABASE_PATH"`
	DisableFTS   bool   `env:"DISABLE_FTS" envDefault:"false"`

	// Background processing
	PollInterval      time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	ErrorBackoff      time.Duration `env:"ERROR_BACKOFF" envDefault:"10s"`
	BatchSize         int           `env:"BATCH_SIZE" envDefault:"10"`
	Concurrency       int           `env:"CONCURRENCY" envDefault:"3"`
	MaxAttempts       int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	ProcessingTimeout time.Duration `env:"PROCESSING_TIMEOUT" envDefault:"300s"`

	// Outbound requests
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// Classification
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`
	OpenRouterModel  string `env:"OPENROUTER_MODEL" envDefault:"openai/gpt-4o-mini"`

	// Observability
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present; a missing file is not an error.
func Load() (*Config, error) {
	// Existing environment wins over .env contents
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "REMEMBOT_"}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.DatabasePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.DatabasePath = filepath.Join(home, ".remembot", "remembot.db")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", c.MaxAttempts)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel translates the configured level for the logger
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

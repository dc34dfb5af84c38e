// Package config loads server settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the comment server settings.
type Config struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"comments.db"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:8080"`
	// CommentRateLimit is the number of comment posts allowed per client IP per minute.
	CommentRateLimit int    `env:"COMMENT_RATE_LIMIT" envDefault:"10"`
	StaticDir        string `env:"STATIC_DIR" envDefault:"./web/static"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"INFO"`
}

// Load reads the given .env files (missing files are ignored) and then
// parses the environment. Variables already set win over .env values.
func Load(dotenvFiles ...string) (Config, error) {
	for _, f := range dotenvFiles {
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.CommentRateLimit <= 0 {
		return Config{}, fmt.Errorf("COMMENT_RATE_LIMIT must be positive, got %d", cfg.CommentRateLimit)
	}
	return cfg, nil
}

// UsesPostgres reports whether DatabaseURL points at PostgreSQL. Anything
// else is treated as a SQLite file path.
func (c Config) UsesPostgres() bool {
	u := strings.ToLower(c.DatabaseURL)
	return strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://")
}

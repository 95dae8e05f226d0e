package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds server settings loaded from environment variables.
type Config struct {
	HTTPAddr       string   `env:"MAFIA_HTTP_ADDR" envDefault:":8080"`
	DatabaseURL    string   `env:"DATABASE_URL"`
	MigrationsDir  string   `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	TokenSecret    string   `env:"WEBSOCKET_TOKEN_SECRET" envDefault:"dev-secret-change-in-production"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	RateLimit      bool     `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
}

// Load parses the environment into a Config and validates required fields.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	return &cfg, nil
}

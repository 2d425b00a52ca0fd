// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret   string `env:"JWT_SECRET,required,notEmpty"`
	Port        string `env:"PORT" envDefault:"8080"`
	Env         string `env:"ENV" envDefault:"dev"`

	// ClientURL is the Next.js frontend; OAuth callback redirects land there.
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:3000"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	CallbackURL        string `env:"CALLBACK_URL" envDefault:"http://localhost:8080/api/auth/google/callback"`

	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`

	RateLimitAuthMax           int `env:"RATE_LIMIT_AUTH_MAX" envDefault:"20"`
	RateLimitAuthWindowSeconds int `env:"RATE_LIMIT_AUTH_WINDOW_SECONDS" envDefault:"60"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Production reports whether cookie hardening should apply.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	JWTSecret         string `env:"JWT_SECRET,required" validate:"required,min=32"`
	SessionCookieName string `env:"SESSION_COOKIE_NAME" envDefault:"procura_session"`
	CSRFCookieName    string `env:"CSRF_COOKIE_NAME" envDefault:"procura_csrf"`
	CSRFHeaderName    string `env:"CSRF_HEADER_NAME" envDefault:"X-CSRF-Token"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM"    validate:"required_if=Env production,required_if=Env staging"`

	// PublicBaseURL anchors reset links and OAuth redirect URIs.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// SMS delivery is optional everywhere; in production its absence turns
	// the phone endpoints into 501s instead of degrading to code echo.
	SMSAPIKey string `env:"SMS_API_KEY"`
	SMSFrom   string `env:"SMS_FROM"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	AppleClientID      string `env:"APPLE_CLIENT_ID"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Production reports whether dev conveniences (reset-token echo, OAuth stub
// users, non-Secure cookies) must be disabled.
func (c *Config) Production() bool {
	return c.Env == "production"
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package config

import (
	"log/slog"
	"os"
	"strings"
)

// AppConfig is the console configuration, composed from the domain files of
// this package.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual files for the variables:
//   - api.go: remote account API
//   - http.go: console HTTP server and navigation targets
//   - storage.go: durable token storage (sqlite or Redis)
//   - observability.go: metrics
type AppConfig struct {
	// IsDev relaxes production defaults. Set DEV=true or NODE_ENV=development.
	IsDev bool `env:"DEV" envDefault:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	API     APIConfig
	HTTP    HTTPConfig
	Nav     NavConfig
	Storage StorageConfig
	Redis   RedisConfig `envPrefix:"REDIS_"`

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.API.Sanitize()
	c.HTTP.Sanitize()
	c.Nav.Sanitize()
	c.Storage.Sanitize()
	c.Observability.Sanitize()

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.detectDevMode()
}

// detectDevMode falls back to NODE_ENV when DEV is not set.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean info,
// and development mode never logs below debug.
func (c *AppConfig) SlogLevel() slog.Level {
	if c.IsDev {
		return slog.LevelDebug
	}
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

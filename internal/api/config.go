// Package api provides the HTTP server infrastructure for pugmark.
// This package contains the main server implementation while the JSON API
// endpoints are organized in the v2 subpackage.
package api

import (
	"fmt"
	"time"

	"github.com/tphakala/pugmark/internal/conf"
	"github.com/tphakala/pugmark/internal/errors"
	"github.com/tphakala/pugmark/internal/logger"
)

// GetLogger returns the api package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// Default constants for the HTTP server.
const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	// multipartOverheadKB is added to the upload limit for multipart framing.
	multipartOverheadKB = 64
)

// Config holds the HTTP server configuration.
// It consolidates settings from various sources into a single structure
// for easy server initialization.
type Config struct {
	// Server binding
	Host string // Host to bind to (empty for all interfaces)
	Port string // Port to listen on

	// Security settings
	AllowedOrigins []string // CORS allowed origins

	// Timeouts
	ReadTimeout     time.Duration // Maximum duration for reading request
	WriteTimeout    time.Duration // Maximum duration for writing response, bounds SSE streams too
	IdleTimeout     time.Duration // Maximum time to wait for next request
	ShutdownTimeout time.Duration // Maximum time to wait for graceful shutdown

	// Limits
	BodyLimit string  // Maximum request body size (e.g., "1M", "10M")
	RateLimit float64 // Run submissions per second per client, 0 disables
	Burst     int     // Submissions allowed above RateLimit in a burst

	// Logging
	Debug    bool            // Enable debug mode
	LogLevel logger.LogLevel // Logging level
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:            "",
		Port:            "8080",
		AllowedOrigins:  []string{"*"},
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		BodyLimit:       "10M",
		Debug:           false,
		LogLevel:        logger.LogLevelInfo,
	}
}

// ConfigFromSettings creates a Config from the application settings.
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := DefaultConfig()

	cfg.Port = settings.WebServer.Port
	cfg.Host = ""
	if len(settings.WebServer.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = settings.WebServer.AllowedOrigins
	}
	cfg.RateLimit = settings.WebServer.RateLimit
	cfg.Burst = settings.WebServer.Burst

	// The body limit follows the upload limit with room for multipart framing.
	if size, err := settings.Upload.MaxSizeBytes(); err == nil && size > 0 {
		cfg.BodyLimit = fmt.Sprintf("%dK", size/1024+multipartOverheadKB)
	} else {
		cfg.BodyLimit = settings.Upload.MaxSize
	}

	cfg.Debug = settings.WebServer.Debug || settings.Debug
	if cfg.Debug {
		cfg.LogLevel = logger.LogLevelDebug
	}

	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var problem string
	switch {
	case c.Port == "":
		problem = "port is required"
	case c.ReadTimeout <= 0:
		problem = "read timeout must be positive"
	case c.WriteTimeout <= 0:
		problem = "write timeout must be positive"
	case c.RateLimit < 0:
		problem = "rate limit must not be negative"
	case c.RateLimit > 0 && c.Burst < 1:
		problem = "burst must be at least 1 when rate limiting is enabled"
	}
	if problem == "" {
		return nil
	}
	return errors.Newf("%s", problem).
		Category(errors.CategoryConfiguration).
		Component("api").
		Build()
}

// Address returns the full address string for the server to listen on.
func (c *Config) Address() string {
	if c.Host == "" {
		return ":" + c.Port
	}
	return c.Host + ":" + c.Port
}

// String returns a human-readable representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf("Server Config: address=%s, body_limit=%s, rate_limit=%g, debug=%v",
		c.Address(), c.BodyLimit, c.RateLimit, c.Debug)
}

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/tphakala/pugmark/internal/api/middleware"
	v2 "github.com/tphakala/pugmark/internal/api/v2"
	"github.com/tphakala/pugmark/internal/analysis"
	"github.com/tphakala/pugmark/internal/classifier"
	"github.com/tphakala/pugmark/internal/conf"
	"github.com/tphakala/pugmark/internal/logger"
	"github.com/tphakala/pugmark/internal/observability"
	"github.com/tphakala/pugmark/internal/upload"
)

// Server is the main HTTP server for pugmark.
// It manages the Echo framework instance, middleware, and all HTTP routes.
type Server struct {
	// Core components
	echo   *echo.Echo
	config *Config
	logger logger.Logger

	// Dependencies
	manager    *analysis.Manager
	classifier *classifier.Policy
	uploads    upload.Policy
	metrics    *observability.Metrics
	version    string

	// API controller
	apiController *v2.Controller

	startTime time.Time
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the logger for the server.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics sets the observability metrics for the server.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(version string) ServerOption {
	return func(s *Server) {
		s.version = version
	}
}

// New creates a new HTTP server serving the given analysis manager.
func New(settings *conf.Settings, manager *analysis.Manager, policy *classifier.Policy, opts ...ServerOption) (*Server, error) {
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	uploads, err := upload.NewPolicy(settings.Upload.MaxSize, settings.Upload.Extensions)
	if err != nil {
		return nil, err
	}

	return NewWithConfig(config, manager, policy, uploads, opts...)
}

// NewWithConfig creates a server from an explicit Config.
func NewWithConfig(config *Config, manager *analysis.Manager, policy *classifier.Policy, uploads upload.Policy, opts ...ServerOption) (*Server, error) {
	s := &Server{
		config:     config,
		manager:    manager,
		classifier: policy,
		uploads:    uploads,
		startTime:  time.Now(),
		version:    "dev",
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = GetLogger()
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = config.Debug

	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}

	s.logger.Info("HTTP server initialized",
		logger.String("address", config.Address()),
		logger.String("body_limit", config.BodyLimit),
		logger.Bool("debug", config.Debug))

	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.Recover())

	s.echo.Use(mw.NewRequestLoggerWithSkipper(s.logger, func(c echo.Context) bool {
		return c.Path() == "/health"
	}))

	if s.metrics != nil {
		s.echo.Use(mw.NewMetrics(s.metrics.HTTP))
	}

	securityConfig := mw.DefaultSecurityConfig()
	securityConfig.AllowedOrigins = s.config.AllowedOrigins

	s.echo.Use(mw.NewCORS(securityConfig))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))

	// Gzip compression (auto-skips SSE endpoints)
	s.echo.Use(mw.NewGzip())

	s.echo.Use(mw.NewSecureHeaders(securityConfig))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() error {
	s.echo.GET("/health", s.healthCheck)

	opts := []v2.Option{
		v2.WithLogger(s.logger),
		v2.WithSubmitLimiter(mw.NewRateLimiter(s.config.RateLimit, s.config.Burst)),
	}
	if s.metrics != nil {
		opts = append(opts, v2.WithHTTPMetrics(s.metrics.HTTP))
	}

	apiController, err := v2.New(s.echo, s.manager, s.classifier, s.uploads, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize API v2: %w", err)
	}
	s.apiController = apiController

	s.logger.Debug("routes initialized", logger.String("api_version", "v2"))
	return nil
}

// healthCheck handles the server health check endpoint.
func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)

	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"version":        s.version,
		"sessions":       s.manager.Len(),
		"uptime":         uptime.String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
// It returns nil after a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Address(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.echo.Listener = ln

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", logger.String("address", ln.Addr().String()))
		errCh <- s.echo.Start("")
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, initiating graceful shutdown")
	}

	if err := s.Shutdown(); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Error("error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// APIController returns the v2 API controller.
func (s *Server) APIController() *v2.Controller {
	return s.apiController
}

// Echo returns the underlying Echo instance.
// This is useful for testing or advanced configuration.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Config returns the server configuration.
func (s *Server) Config() *Config {
	return s.config
}

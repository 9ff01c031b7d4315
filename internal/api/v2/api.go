// Package api implements the JSON API v2 endpoints for pugmark: analysis
// sessions with their staged runs, the species registry and one-shot
// classification.
package api

import (
	"crypto/rand"
	"math/big"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/pugmark/internal/analysis"
	"github.com/tphakala/pugmark/internal/classifier"
	"github.com/tphakala/pugmark/internal/errors"
	"github.com/tphakala/pugmark/internal/logger"
	"github.com/tphakala/pugmark/internal/observability/metrics"
	"github.com/tphakala/pugmark/internal/species"
	"github.com/tphakala/pugmark/internal/upload"
)

// Prefix is the mount point of the v2 API.
const Prefix = "/api/v2"

// SSEHeartbeatInterval is how often an idle event stream gets a heartbeat.
const SSEHeartbeatInterval = 15 * time.Second

// GetLogger returns the v2 API logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// Controller manages the API routes and handlers
type Controller struct {
	Group *echo.Group

	manager    *analysis.Manager
	classifier *classifier.Policy
	registry   *species.Registry
	uploads    upload.Policy

	httpMetrics   *metrics.HTTPMetrics
	submitLimiter echo.MiddlewareFunc
	heartbeat     time.Duration

	logger logger.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithHTTPMetrics records SSE connection metrics.
func WithHTTPMetrics(m *metrics.HTTPMetrics) Option {
	return func(c *Controller) {
		c.httpMetrics = m
	}
}

// WithSubmitLimiter guards run submission with mw, typically a rate limiter.
func WithSubmitLimiter(mw echo.MiddlewareFunc) Option {
	return func(c *Controller) {
		c.submitLimiter = mw
	}
}

// WithHeartbeat overrides the SSE heartbeat interval.
func WithHeartbeat(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.heartbeat = d
		}
	}
}

// WithLogger replaces the module logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates the v2 controller and registers its routes on e under Prefix.
func New(e *echo.Echo, manager *analysis.Manager, policy *classifier.Policy, uploads upload.Policy, opts ...Option) (*Controller, error) {
	if e == nil || manager == nil || policy == nil {
		return nil, errors.Newf("api controller requires echo, manager and classifier").
			Category(errors.CategoryConfiguration).
			Component("api").
			Build()
	}

	c := &Controller{
		Group:      e.Group(Prefix),
		manager:    manager,
		classifier: policy,
		registry:   policy.Registry(),
		uploads:    uploads,
		heartbeat:  SSEHeartbeatInterval,
		logger:     GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.initRoutes()
	return c, nil
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	routeInitializers := []struct {
		name string
		fn   func()
	}{
		{"session routes", c.initSessionRoutes},
		{"sse routes", c.initSSERoutes},
		{"species routes", c.initSpeciesRoutes},
		{"classify routes", c.initClassifyRoutes},
	}

	for _, group := range routeInitializers {
		group.fn()
		c.logger.Debug("initialized route group", logger.String("group", group.name))
	}
}

// ErrorResponse is the body of every API error.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	var errorStr string
	if err != nil {
		errorStr = err.Error()
	} else {
		errorStr = message
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID creates an 8 character identifier from crypto/rand
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	limit := big.NewInt(int64(len(charset)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			b[i] = charset[i%len(charset)]
			continue
		}
		b[i] = charset[n.Int64()]
	}
	return string(b)
}

// HandleError logs err and writes it as an ErrorResponse with the given status.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	fields := []logger.Field{
		logger.String("correlation_id", errorResp.CorrelationID),
		logger.String("message", message),
		logger.String("error", errorResp.Error),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
	}
	if code >= http.StatusInternalServerError {
		c.logger.Error("API error", fields...)
	} else {
		c.logger.Debug("API error", fields...)
	}

	return ctx.JSON(code, errorResp)
}

// statusForError maps an error category onto an HTTP status.
func statusForError(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}

	var ee *errors.EnhancedError
	if !errors.As(err, &ee) {
		return http.StatusInternalServerError
	}
	switch ee.Category {
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryLimit:
		return http.StatusRequestEntityTooLarge
	case errors.CategoryState:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleDomainError writes err with the status its category implies.
func (c *Controller) handleDomainError(ctx echo.Context, err error, message string) error {
	return c.HandleError(ctx, err, message, statusForError(err))
}

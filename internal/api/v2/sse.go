package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/pugmark/internal/analysis"
	"github.com/tphakala/pugmark/internal/errors"
	"github.com/tphakala/pugmark/internal/logger"
)

// SSE event names.
const (
	EventProgress  = "progress"
	EventResult    = "result"
	EventCancelled = "cancelled"
	EventHeartbeat = "heartbeat"
)

// sseWriteTimeout bounds a single event write to a slow client.
const sseWriteTimeout = 10 * time.Second

// initSSERoutes registers SSE-related API endpoints
func (c *Controller) initSSERoutes() {
	c.Group.GET("/sessions/:session/run/events", c.StreamRun)
}

// StreamRun handles GET /api/v2/sessions/:session/run/events. It streams the
// run's current snapshot and every later transition, then ends after the
// terminal snapshot.
func (c *Controller) StreamRun(ctx echo.Context) error {
	sessionID := ctx.Param("session")
	run, err := c.manager.Current(sessionID)
	if err != nil {
		return c.handleDomainError(ctx, err, "No analysis run")
	}

	snapshots, unsubscribe := run.Subscribe()
	defer unsubscribe()

	ctx.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	ctx.Response().Header().Set("Cache-Control", "no-cache")
	ctx.Response().Header().Set("Connection", "keep-alive")
	ctx.Response().Header().Set("X-Accel-Buffering", "no")
	ctx.Response().WriteHeader(http.StatusOK)

	if c.httpMetrics != nil {
		c.httpMetrics.SSEConnectionStarted()
		defer c.httpMetrics.SSEConnectionClosed()
	}

	clientID := generateCorrelationID()
	log := c.logger.With(
		logger.String("client_id", clientID),
		logger.String("session_id", sessionID),
		logger.String("run_id", run.ID()),
	)
	log.Debug("SSE client connected", logger.String("ip", ctx.RealIP()))
	defer log.Debug("SSE client disconnected")

	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			if err := c.sendSSEMessage(ctx, eventFor(snap), snap); err != nil {
				log.Debug("SSE send failed, client likely disconnected", logger.Error(err))
				return nil
			}
			if snap.Terminal() {
				return nil
			}

		case <-ticker.C:
			if err := c.sendSSEMessage(ctx, EventHeartbeat, map[string]any{
				"timestamp": time.Now().Unix(),
			}); err != nil {
				log.Debug("SSE heartbeat failed, client likely disconnected", logger.Error(err))
				return nil
			}

		case <-ctx.Request().Context().Done():
			return nil
		}
	}
}

// eventFor names the SSE event carrying snap.
func eventFor(snap analysis.Snapshot) string {
	switch {
	case snap.Cancelled:
		return EventCancelled
	case snap.Stage == analysis.StageComplete:
		return EventResult
	default:
		return EventProgress
	}
}

// sendSSEMessage sends a Server-Sent Event message
func (c *Controller) sendSSEMessage(ctx echo.Context, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE data: %w", err)
	}

	rc := http.NewResponseController(ctx.Response())
	if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		c.logger.Debug("failed to set SSE write deadline", logger.Error(err))
	}

	if _, err := fmt.Fprintf(ctx.Response(), "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return fmt.Errorf("failed to write SSE message: %w", err)
	}
	if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("failed to flush SSE message: %w", err)
	}

	if c.httpMetrics != nil {
		c.httpMetrics.RecordSSEMessageSent()
	}
	return nil
}

package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/pugmark/internal/errors"
	"github.com/tphakala/pugmark/internal/logger"
	"github.com/tphakala/pugmark/internal/upload"
)

// ImageFormField is the multipart field carrying the submitted image.
const ImageFormField = "image"

// SessionResponse is returned when a session is opened.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// initSessionRoutes registers session and run endpoints
func (c *Controller) initSessionRoutes() {
	c.Group.POST("/sessions", c.OpenSession)
	c.Group.DELETE("/sessions/:session", c.CloseSession)

	if c.submitLimiter != nil {
		c.Group.PUT("/sessions/:session/run", c.SubmitRun, c.submitLimiter)
	} else {
		c.Group.PUT("/sessions/:session/run", c.SubmitRun)
	}
	c.Group.GET("/sessions/:session/run", c.GetRun)
	c.Group.DELETE("/sessions/:session/run", c.ResetRun)
	c.Group.GET("/sessions/:session/run/image", c.GetRunImage)
}

// OpenSession handles POST /api/v2/sessions
func (c *Controller) OpenSession(ctx echo.Context) error {
	id, err := c.manager.Open()
	if err != nil {
		return c.handleDomainError(ctx, err, "Failed to open session")
	}
	return ctx.JSON(http.StatusCreated, SessionResponse{SessionID: id})
}

// CloseSession handles DELETE /api/v2/sessions/:session
func (c *Controller) CloseSession(ctx echo.Context) error {
	if err := c.manager.Close(ctx.Param("session")); err != nil {
		return c.handleDomainError(ctx, err, "Failed to close session")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// SubmitRun handles PUT /api/v2/sessions/:session/run. The multipart image
// replaces any previous run of the session; the new run's first snapshot is
// returned while analysis continues in the background.
func (c *Controller) SubmitRun(ctx echo.Context) error {
	sessionID := ctx.Param("session")

	fh, err := ctx.FormFile(ImageFormField)
	if err != nil {
		return c.HandleError(ctx, err, "Missing image upload in field \""+ImageFormField+"\"", http.StatusBadRequest)
	}

	src, err := fh.Open()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read uploaded image", http.StatusBadRequest)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			c.logger.Debug("failed to close multipart file", logger.Error(cerr))
		}
	}()

	file, err := upload.Read(fh.Filename, fh.Header.Get(echo.HeaderContentType), src, c.uploads)
	if err != nil {
		return c.handleDomainError(ctx, err, "Image rejected")
	}

	run, err := c.manager.Submit(sessionID, file)
	if err != nil {
		return c.handleDomainError(ctx, err, "Failed to start analysis")
	}

	c.logger.Info("analysis run submitted",
		logger.String("session_id", sessionID),
		logger.String("run_id", run.ID()),
		logger.Int64("file_size", file.Size))

	return ctx.JSON(http.StatusAccepted, run.Snapshot())
}

// GetRun handles GET /api/v2/sessions/:session/run
func (c *Controller) GetRun(ctx echo.Context) error {
	run, err := c.manager.Current(ctx.Param("session"))
	if err != nil {
		return c.handleDomainError(ctx, err, "No analysis run")
	}
	return ctx.JSON(http.StatusOK, run.Snapshot())
}

// ResetRun handles DELETE /api/v2/sessions/:session/run
func (c *Controller) ResetRun(ctx echo.Context) error {
	if err := c.manager.Reset(ctx.Param("session")); err != nil {
		return c.handleDomainError(ctx, err, "Failed to reset session")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// GetRunImage handles GET /api/v2/sessions/:session/run/image and serves the
// stored upload until the run is discarded.
func (c *Controller) GetRunImage(ctx echo.Context) error {
	run, err := c.manager.Current(ctx.Param("session"))
	if err != nil {
		return c.handleDomainError(ctx, err, "No analysis run")
	}

	file := run.File()
	content := file.Content()
	if file.Released() || content == nil {
		return c.HandleError(ctx, errors.NewStd("image released"), "Image is no longer available", http.StatusGone)
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}
	ctx.Response().Header().Set("Cache-Control", "no-store")
	return ctx.Blob(http.StatusOK, contentType, content)
}

package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/pugmark/internal/logger"
)

// ClassifyRequest asks for an immediate classification of a file name and size.
type ClassifyRequest struct {
	FileName string `json:"file_name"`
	FileSize *int64 `json:"file_size"`
}

// initClassifyRoutes registers the one-shot classification endpoint
func (c *Controller) initClassifyRoutes() {
	c.Group.POST("/classify", c.Classify)
}

// Classify handles POST /api/v2/classify. It skips the staged run and
// returns the classification result directly.
func (c *Controller) Classify(ctx echo.Context) error {
	var req ClassifyRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	switch {
	case strings.TrimSpace(req.FileName) == "":
		return c.HandleError(ctx, nil, "file_name is required", http.StatusBadRequest)
	case req.FileSize == nil:
		return c.HandleError(ctx, nil, "file_size is required", http.StatusBadRequest)
	case *req.FileSize < 0:
		return c.HandleError(ctx, nil, "file_size must not be negative", http.StatusBadRequest)
	}

	result := c.classifier.Classify(req.FileName, *req.FileSize)
	c.logger.Debug("classified",
		logger.String("class_id", result.ClassID()),
		logger.Float64("confidence", result.Confidence))

	return ctx.JSON(http.StatusOK, result)
}

package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/pugmark/internal/species"
)

// SpeciesListResponse lists the registry in class index order.
type SpeciesListResponse struct {
	Species []species.Record `json:"species"`
	Count   int              `json:"count"`
}

// initSpeciesRoutes registers species-related API endpoints
func (c *Controller) initSpeciesRoutes() {
	c.Group.GET("/species", c.ListSpecies)
	c.Group.GET("/species/:id", c.GetSpecies)
}

// ListSpecies handles GET /api/v2/species
func (c *Controller) ListSpecies(ctx echo.Context) error {
	records := c.registry.All()
	return ctx.JSON(http.StatusOK, SpeciesListResponse{
		Species: records,
		Count:   len(records),
	})
}

// GetSpecies handles GET /api/v2/species/:id
func (c *Controller) GetSpecies(ctx echo.Context) error {
	id := strings.TrimSpace(ctx.Param("id"))
	if id == "" {
		return c.HandleError(ctx, nil, "Missing species id", http.StatusBadRequest)
	}

	record, err := c.registry.Lookup(id)
	if err != nil {
		return c.handleDomainError(ctx, err, "Species not found")
	}
	return ctx.JSON(http.StatusOK, record)
}

package handler

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-search/internal/repository"
)

// MetadataHandler serves the search lookup tables clients build their filter
// UIs from.
type MetadataHandler struct {
	Repo *repository.MetadataRepo
}

// Metadata handles GET /v1/search/metadata: all categories plus the active
// cities, with both localized names.
func (h *MetadataHandler) Metadata(c echo.Context) error {
	ctx := c.Request().Context()

	categories, err := h.Repo.Categories(ctx)
	if err != nil {
		log.Printf("metadata: categories query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database_error"})
	}
	cities, err := h.Repo.Cities(ctx)
	if err != nil {
		log.Printf("metadata: cities query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database_error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"categories": categories,
		"cities":     cities,
	})
}

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/openshelf/catalog/cmd/catalog/repository"
	"github.com/openshelf/catalog/common/logger"
)

// LookupHandler serves the lookup tables that entity forms render from
type LookupHandler struct {
	lookups *repository.LookupRepository
	log     *logger.Logger
}

// NewLookupHandler creates a new lookup handler
func NewLookupHandler(lookups *repository.LookupRepository, log *logger.Logger) *LookupHandler {
	return &LookupHandler{lookups: lookups, log: log}
}

// List returns all lookup tables in one payload
// GET /api/v1/lookups
func (h *LookupHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	languages, err := h.lookups.Languages(ctx)
	if err != nil {
		return writeError(c, h.log, err)
	}

	formats, err := h.lookups.EditionFormats(ctx)
	if err != nil {
		return writeError(c, h.log, err)
	}

	statuses, err := h.lookups.EditionStatuses(ctx)
	if err != nil {
		return writeError(c, h.log, err)
	}

	workTypes, err := h.lookups.WorkTypes(ctx)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"languages":        languages,
		"edition_formats":  formats,
		"edition_statuses": statuses,
		"work_types":       workTypes,
	})
}

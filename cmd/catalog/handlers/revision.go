package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/openshelf/catalog/cmd/catalog/service"
	"github.com/openshelf/catalog/common/cerrors"
	"github.com/openshelf/catalog/common/logger"
	"github.com/openshelf/catalog/common/models"
)

// RevisionHandler serves revision history and diffs
type RevisionHandler struct {
	revisions *service.RevisionService
	log       *logger.Logger
}

// NewRevisionHandler creates a new revision handler
func NewRevisionHandler(revisions *service.RevisionService, log *logger.Logger) *RevisionHandler {
	return &RevisionHandler{revisions: revisions, log: log}
}

// History lists an entity's revisions, newest first
// GET /api/v1/:entity_type/:bbid/revisions
func (h *RevisionHandler) History(c echo.Context) error {
	entityType, err := parseEntityType(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	bbid, err := parseBBID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	records, err := h.revisions.History(c.Request().Context(), entityType, bbid, limit)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"bbid":      bbid,
		"revisions": records,
	})
}

// Diff renders one revision's change against its parent
// GET /api/v1/:entity_type/revisions/:id/diff
func (h *RevisionHandler) Diff(c echo.Context) error {
	entityType, err := parseEntityType(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	revisionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return writeError(c, h.log, cerrors.NewValidation("id", "malformed revision id %q", c.Param("id")))
	}

	diff, err := h.revisions.Diff(c.Request().Context(), entityType, revisionID)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, diff)
}

// parseEntityType maps the route segment onto an entity type
func parseEntityType(c echo.Context) (models.EntityType, error) {
	switch c.Param("entity_type") {
	case "editions":
		return models.EntityTypeEdition, nil
	case "works":
		return models.EntityTypeWork, nil
	default:
		return "", cerrors.NewValidation("entity_type", "unknown entity type %q", c.Param("entity_type"))
	}
}

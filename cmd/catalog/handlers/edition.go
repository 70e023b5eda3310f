package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/openshelf/catalog/cmd/catalog/middleware"
	"github.com/openshelf/catalog/cmd/catalog/service"
	"github.com/openshelf/catalog/common/cerrors"
	"github.com/openshelf/catalog/common/logger"
	"github.com/openshelf/catalog/common/models"
)

// EditionHandler handles edition requests
type EditionHandler struct {
	editions *service.EditionService
	log      *logger.Logger
}

// NewEditionHandler creates a new edition handler
func NewEditionHandler(editions *service.EditionService, log *logger.Logger) *EditionHandler {
	return &EditionHandler{editions: editions, log: log}
}

// Get retrieves an edition aggregate
// GET /api/v1/editions/:bbid
func (h *EditionHandler) Get(c echo.Context) error {
	bbid, err := parseBBID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	edition, err := h.editions.Get(c.Request().Context(), bbid)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, edition)
}

// Create makes a new edition from a change-set. The change-set must carry a
// name; everything else is optional.
// POST /api/v1/editions
func (h *EditionHandler) Create(c echo.Context) error {
	editorID, err := middleware.RequireEditor(c)
	if err != nil {
		return err
	}

	cs := &models.EditionChangeSet{}
	if err := c.Bind(cs); err != nil {
		return writeError(c, h.log, cerrors.NewValidation("", "malformed request body"))
	}
	if cs.Name == nil || *cs.Name == "" {
		return writeError(c, h.log, cerrors.NewValidation("name", "name is required"))
	}

	result, err := h.editions.Create(c.Request().Context(), editorID, *cs.Name, cs)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusCreated, result)
}

// Update applies a sparse change-set to an edition
// PUT /api/v1/editions/:bbid
func (h *EditionHandler) Update(c echo.Context) error {
	editorID, err := middleware.RequireEditor(c)
	if err != nil {
		return err
	}

	bbid, err := parseBBID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	cs := &models.EditionChangeSet{}
	if err := c.Bind(cs); err != nil {
		return writeError(c, h.log, cerrors.NewValidation("", "malformed request body"))
	}
	if cs.Empty() {
		return writeError(c, h.log, cerrors.NewValidation("", "change-set is empty"))
	}

	result, err := h.editions.Update(c.Request().Context(), bbid, editorID, cs)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, result)
}

// Delete retires an edition through a deletion revision
// DELETE /api/v1/editions/:bbid
func (h *EditionHandler) Delete(c echo.Context) error {
	editorID, err := middleware.RequireEditor(c)
	if err != nil {
		return err
	}

	bbid, err := parseBBID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	result, err := h.editions.Delete(c.Request().Context(), bbid, editorID)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, result)
}

// parseBBID parses the :bbid path parameter
func parseBBID(c echo.Context) (uuid.UUID, error) {
	bbid, err := uuid.Parse(c.Param("bbid"))
	if err != nil {
		return uuid.Nil, cerrors.NewValidation("bbid", "malformed bbid %q", c.Param("bbid"))
	}
	return bbid, nil
}

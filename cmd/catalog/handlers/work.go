package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/openshelf/catalog/cmd/catalog/middleware"
	"github.com/openshelf/catalog/cmd/catalog/service"
	"github.com/openshelf/catalog/common/cerrors"
	"github.com/openshelf/catalog/common/logger"
	"github.com/openshelf/catalog/common/models"
)

// WorkHandler handles work requests
type WorkHandler struct {
	works *service.WorkService
	log   *logger.Logger
}

// NewWorkHandler creates a new work handler
func NewWorkHandler(works *service.WorkService, log *logger.Logger) *WorkHandler {
	return &WorkHandler{works: works, log: log}
}

// Get retrieves a work aggregate
// GET /api/v1/works/:bbid
func (h *WorkHandler) Get(c echo.Context) error {
	bbid, err := parseBBID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	work, err := h.works.Get(c.Request().Context(), bbid)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, work)
}

// Create makes a new work from a change-set
// POST /api/v1/works
func (h *WorkHandler) Create(c echo.Context) error {
	editorID, err := middleware.RequireEditor(c)
	if err != nil {
		return err
	}

	cs := &models.WorkChangeSet{}
	if err := c.Bind(cs); err != nil {
		return writeError(c, h.log, cerrors.NewValidation("", "malformed request body"))
	}
	if cs.Name == nil || *cs.Name == "" {
		return writeError(c, h.log, cerrors.NewValidation("name", "name is required"))
	}

	result, err := h.works.Create(c.Request().Context(), editorID, *cs.Name, cs)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusCreated, result)
}

// Update applies a sparse change-set to a work
// PUT /api/v1/works/:bbid
func (h *WorkHandler) Update(c echo.Context) error {
	editorID, err := middleware.RequireEditor(c)
	if err != nil {
		return err
	}

	bbid, err := parseBBID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	cs := &models.WorkChangeSet{}
	if err := c.Bind(cs); err != nil {
		return writeError(c, h.log, cerrors.NewValidation("", "malformed request body"))
	}
	if cs.Empty() {
		return writeError(c, h.log, cerrors.NewValidation("", "change-set is empty"))
	}

	result, err := h.works.Update(c.Request().Context(), bbid, editorID, cs)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, result)
}

// Delete retires a work through a deletion revision
// DELETE /api/v1/works/:bbid
func (h *WorkHandler) Delete(c echo.Context) error {
	editorID, err := middleware.RequireEditor(c)
	if err != nil {
		return err
	}

	bbid, err := parseBBID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	result, err := h.works.Delete(c.Request().Context(), bbid, editorID)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, result)
}

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/openshelf/catalog/cmd/catalog/middleware"
	"github.com/openshelf/catalog/common/logger"
	"github.com/openshelf/catalog/common/repository"
)

// SubscriptionHandler manages entity subscriptions
type SubscriptionHandler struct {
	subscriptions *repository.SubscriptionRepository
	log           *logger.Logger
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptions *repository.SubscriptionRepository, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions, log: log}
}

// Subscribe subscribes the caller to an entity's change notifications
// PUT /api/v1/:entity_type/:bbid/subscription
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
	editorID, err := middleware.RequireEditor(c)
	if err != nil {
		return err
	}

	if _, err := parseEntityType(c); err != nil {
		return writeError(c, h.log, err)
	}

	bbid, err := parseBBID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	if err := h.subscriptions.Subscribe(c.Request().Context(), bbid, editorID); err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"bbid":       bbid,
		"subscribed": true,
	})
}

// Unsubscribe removes the caller's subscription
// DELETE /api/v1/:entity_type/:bbid/subscription
func (h *SubscriptionHandler) Unsubscribe(c echo.Context) error {
	editorID, err := middleware.RequireEditor(c)
	if err != nil {
		return err
	}

	if _, err := parseEntityType(c); err != nil {
		return writeError(c, h.log, err)
	}

	bbid, err := parseBBID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	if err := h.subscriptions.Unsubscribe(c.Request().Context(), bbid, editorID); err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"bbid":       bbid,
		"subscribed": false,
	})
}

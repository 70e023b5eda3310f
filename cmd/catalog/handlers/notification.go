package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/openshelf/catalog/cmd/catalog/middleware"
	"github.com/openshelf/catalog/common/cerrors"
	"github.com/openshelf/catalog/common/logger"
	"github.com/openshelf/catalog/common/repository"
)

const defaultNotificationLimit = 20

// NotificationHandler serves a subscriber's notification feed
type NotificationHandler struct {
	notifications *repository.NotificationRepository
	log           *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *repository.NotificationRepository, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, log: log}
}

// List returns the caller's notifications, newest first
// GET /api/v1/notifications
func (h *NotificationHandler) List(c echo.Context) error {
	editorID, err := middleware.RequireEditor(c)
	if err != nil {
		return err
	}

	limit := defaultNotificationLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	notifications, err := h.notifications.ListBySubscriber(c.Request().Context(), editorID, limit)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": notifications,
	})
}

// MarkRead marks one of the caller's notifications as read
// POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	editorID, err := middleware.RequireEditor(c)
	if err != nil {
		return err
	}

	notificationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return writeError(c, h.log, cerrors.NewValidation("id", "malformed notification id %q", c.Param("id")))
	}

	if err := h.notifications.MarkRead(c.Request().Context(), editorID, notificationID); err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":   notificationID,
		"read": true,
	})
}

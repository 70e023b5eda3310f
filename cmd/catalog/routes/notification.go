package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/openshelf/catalog/cmd/catalog/container"
	"github.com/openshelf/catalog/cmd/catalog/handlers"
)

// RegisterNotificationRoutes registers the notification feed routes
func RegisterNotificationRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewNotificationHandler(c.NotificationRepo, c.Components.Logger)

	notifications := e.Group("/api/v1/notifications")
	{
		notifications.GET("", h.List)               // GET /api/v1/notifications
		notifications.POST("/:id/read", h.MarkRead) // POST /api/v1/notifications/:id/read
	}
}

package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/openshelf/catalog/cmd/catalog/container"
	"github.com/openshelf/catalog/cmd/catalog/handlers"
)

// RegisterSubscriptionRoutes registers entity subscription routes
func RegisterSubscriptionRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewSubscriptionHandler(c.SubscriptionRepo, c.Components.Logger)

	group := e.Group("/api/v1/:entity_type/:bbid/subscription")
	{
		group.PUT("", h.Subscribe)      // PUT /api/v1/editions/:bbid/subscription
		group.DELETE("", h.Unsubscribe) // DELETE /api/v1/editions/:bbid/subscription
	}
}

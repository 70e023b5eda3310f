package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/openshelf/catalog/cmd/catalog/container"
	"github.com/openshelf/catalog/cmd/catalog/handlers"
)

// RegisterLookupRoutes registers the lookup table routes
func RegisterLookupRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewLookupHandler(c.LookupRepo, c.Components.Logger)

	e.GET("/api/v1/lookups", h.List) // GET /api/v1/lookups
}

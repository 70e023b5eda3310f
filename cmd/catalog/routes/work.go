package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/openshelf/catalog/cmd/catalog/container"
	"github.com/openshelf/catalog/cmd/catalog/handlers"
	"github.com/openshelf/catalog/cmd/catalog/middleware"
)

// RegisterWorkRoutes registers all work routes
func RegisterWorkRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewWorkHandler(c.WorkService, c.Components.Logger)

	limited := middleware.EditRateLimit(c.Limiter, c.Components.Config.RateLimit, c.Components.Logger)

	works := e.Group("/api/v1/works")
	{
		works.GET("/:bbid", h.Get)                // GET /api/v1/works/:bbid
		works.POST("", h.Create, limited)         // POST /api/v1/works
		works.PUT("/:bbid", h.Update, limited)    // PUT /api/v1/works/:bbid
		works.DELETE("/:bbid", h.Delete, limited) // DELETE /api/v1/works/:bbid
	}
}

package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/openshelf/catalog/cmd/catalog/container"
	"github.com/openshelf/catalog/cmd/catalog/handlers"
	"github.com/openshelf/catalog/cmd/catalog/middleware"
)

// RegisterEditionRoutes registers all edition routes
func RegisterEditionRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewEditionHandler(c.EditionService, c.Components.Logger)

	limited := middleware.EditRateLimit(c.Limiter, c.Components.Config.RateLimit, c.Components.Logger)

	editions := e.Group("/api/v1/editions")
	{
		editions.GET("/:bbid", h.Get)                // GET /api/v1/editions/:bbid
		editions.POST("", h.Create, limited)         // POST /api/v1/editions
		editions.PUT("/:bbid", h.Update, limited)    // PUT /api/v1/editions/:bbid
		editions.DELETE("/:bbid", h.Delete, limited) // DELETE /api/v1/editions/:bbid
	}
}

package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/openshelf/catalog/cmd/catalog/container"
	"github.com/openshelf/catalog/cmd/catalog/handlers"
)

// RegisterRevisionRoutes registers revision history and diff routes
func RegisterRevisionRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewRevisionHandler(c.RevisionService, c.Components.Logger)

	group := e.Group("/api/v1/:entity_type")
	{
		group.GET("/:bbid/revisions", h.History)  // GET /api/v1/editions/:bbid/revisions
		group.GET("/revisions/:id/diff", h.Diff)  // GET /api/v1/works/revisions/:id/diff
	}
}

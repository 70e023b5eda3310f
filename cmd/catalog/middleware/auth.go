package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// EditorIDKey is the context key for the authenticated editor id
	EditorIDKey ContextKey = "editor_id"
)

// ExtractEditor extracts the X-Editor-ID header and stores the parsed id in
// the request context. Read-only routes tolerate a missing header; mutating
// handlers call RequireEditor.
func ExtractEditor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get("X-Editor-ID")
			if raw != "" {
				editorID, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return c.JSON(http.StatusBadRequest, map[string]interface{}{
						"error": "X-Editor-ID must be an integer",
					})
				}
				c.Set(string(EditorIDKey), editorID)
			}

			return next(c)
		}
	}
}

// GetEditorID retrieves the editor id from the request context.
// Returns 0 if not set.
func GetEditorID(c echo.Context) int64 {
	editorID := c.Get(string(EditorIDKey))
	if editorID == nil {
		return 0
	}
	return editorID.(int64)
}

// RequireEditor ensures an editor id exists in context
func RequireEditor(c echo.Context) (int64, error) {
	editorID := GetEditorID(c)
	if editorID == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "authentication required (X-Editor-ID header missing)")
	}
	return editorID, nil
}

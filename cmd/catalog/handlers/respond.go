package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/openshelf/catalog/common/cerrors"
	"github.com/openshelf/catalog/common/logger"
)

// writeError maps domain errors onto HTTP responses. Validation failures and
// lookup misses carry their message through; persistence failures return a
// generic body so database details never leak to clients.
func writeError(c echo.Context, log *logger.Logger, err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var valErr *cerrors.ValidationError
	if errors.As(err, &valErr) {
		body := map[string]interface{}{"error": valErr.Message}
		if valErr.Field != "" {
			body["field"] = valErr.Field
		}
		return c.JSON(http.StatusBadRequest, body)
	}

	if cerrors.IsNotFound(err) {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Error("request failed", "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": "internal error",
	})
}

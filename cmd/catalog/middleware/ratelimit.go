package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/openshelf/catalog/common/config"
	"github.com/openshelf/catalog/common/logger"
	"github.com/openshelf/catalog/common/ratelimit"
)

// EditRateLimit throttles edit submissions per editor. When Redis is
// unavailable the check fails open: an edit is never rejected because the
// limiter is down.
func EditRateLimit(limiter *ratelimit.Limiter, cfg config.RateLimitConfig, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Enabled || limiter == nil {
				return next(c)
			}

			editorID := GetEditorID(c)
			if editorID == 0 {
				return next(c)
			}

			result, err := limiter.CheckEditorLimit(c.Request().Context(), editorID, cfg.EditsPerMinute)
			if err != nil {
				log.Warn("rate limit check failed, allowing request", "editor_id", editorID, "error", err)
				return next(c)
			}

			if !result.Allowed {
				c.Response().Header().Set("Retry-After", strconv.FormatInt(result.RetryAfterSeconds, 10))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":       "edit rate limit exceeded",
					"limit":       result.Limit,
					"retry_after": result.RetryAfterSeconds,
				})
			}

			return next(c)
		}
	}
}

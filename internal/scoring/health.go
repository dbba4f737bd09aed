package scoring

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports whether the scorer answers its health endpoint.
func HealthHandler(c *Client) echo.HandlerFunc {
	return func(ec echo.Context) error {
		ctx, cancel := context.WithTimeout(ec.Request().Context(), 3*time.Second)
		defer cancel()

		if err := c.Health(ctx); err != nil {
			return ec.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"success": false,
				"status":  "unhealthy",
				"scorer":  "unavailable",
				"reason":  string(ReasonOf(err)),
			})
		}
		return ec.JSON(http.StatusOK, map[string]interface{}{
			"success": true,
			"status":  "healthy",
			"scorer":  "reachable",
		})
	}
}

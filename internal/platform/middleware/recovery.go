package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/riskcare/internal/platform/httpx"
)

// Recovery converts a handler panic into an *httpx.Error, leaving the
// response to httpx.ErrorHandler like any other 500.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = panicError(c, logger, r)
				}
			}()
			return next(c)
		}
	}
}

// panicError logs r with the stack of the panicking goroutine.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func panicError(c echo.Context, logger zerolog.Logger, r any) error {
	if r == http.ErrAbortHandler {
		panic(r)
	}
	cause, ok := r.(error)
	if !ok {
		cause = fmt.Errorf("%v", r)
	}

	rid, _ := c.Get("request_id").(string)
	logger.Error().
		Err(cause).
		Str("request_id", rid).
		Str("method", c.Request().Method).
		Str("route", c.Path()).
		Bytes("stack", debug.Stack()).
		Msg("panic recovered")

	return &httpx.Error{
		Status:  http.StatusInternalServerError,
		Message: "Internal server error",
		Err:     fmt.Errorf("panic: %w", cause),
	}
}

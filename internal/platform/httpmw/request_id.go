package httpmw

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestID stamps X-Request-Id with a fresh UUID v4 on every response,
// success or error, so an operator can correlate a client-reported problem
// with a server log line.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := uuid.NewString()
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.Set("requestId", id)
			return next(c)
		}
	}
}

package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDKey is the context key the request id is stored under. The logger
// and recovery middleware read it back for correlation.
const RequestIDKey = "request_id"

// RequestIDHeader is the wire header carrying the correlation id.
const RequestIDHeader = echo.HeaderXRequestID

// RequestID assigns each request a correlation id. An id supplied by the
// client in X-Request-ID is honored so upstream proxies can trace calls.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(RequestIDHeader)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set(RequestIDKey, rid)
			c.Response().Header().Set(RequestIDHeader, rid)
			return next(c)
		}
	}
}

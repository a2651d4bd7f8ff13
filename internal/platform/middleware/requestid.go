package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = echo.HeaderXRequestID

// RequestIDKey is the echo context key holding the request id.
const RequestIDKey = "request_id"

// RequestID stores the incoming X-Request-ID, or a fresh UUID, under
// RequestIDKey and echoes it in the response. The request context gets a
// child of base tagged with the id; Log retrieves it.
func RequestID(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(RequestIDHeader)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set(RequestIDKey, rid)
			c.Response().Header().Set(RequestIDHeader, rid)

			l := base.With().Str(RequestIDKey, rid).Logger()
			req := c.Request()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))
			return next(c)
		}
	}
}

// Log returns the request-scoped logger. Without RequestID upstream it is
// zerolog's context default, which is disabled unless configured.
func Log(c echo.Context) *zerolog.Logger {
	return zerolog.Ctx(c.Request().Context())
}

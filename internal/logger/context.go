package logger

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const ctxKey = "logger"

// RequestID assigns a request id (keeping a well-formed incoming one) and
// stores a logger tagged with it in the Echo context.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			c.Request().Header.Set(RequestIDHeader, id)
			c.Response().Header().Set(RequestIDHeader, id)
			c.Set("request_id", id)
			c.Set(ctxKey, Get().With(zap.String("request_id", id)))
			return next(c)
		}
	}
}

// FromContext retrieves the request-scoped logger.
func FromContext(c echo.Context) *zap.Logger {
	if l, ok := c.Get(ctxKey).(*zap.Logger); ok {
		return l
	}
	return Get()
}

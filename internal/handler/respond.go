// Package handler exposes the gym services over HTTP. Handlers bind and
// validate the request, call one service method with the caller taken from
// the auth middleware, and translate apperr kinds into status codes.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/logger"
	"github.com/iliyamo/gym-management/internal/middleware"
	"github.com/iliyamo/gym-management/internal/policy"
)

const requestTimeout = 5 * time.Second

// fail writes err as {"error": ...}. Validator failures also carry a
// field -> tag map. Server side failures are logged with their cause; the
// client only sees the generic message.
func fail(c echo.Context, err error) error {
	if fields, ok := fieldErrors(err); ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c).Error("request failed",
			zap.String("route", c.Path()), zap.Int("status", status), zap.Error(err))
	}
	return c.JSON(status, echo.Map{"error": apperr.MessageOf(err)})
}

// bind decodes the body into dst and runs the struct validator.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	return c.Validate(dst)
}

func caller(c echo.Context) policy.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func list[T any](c echo.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "count": len(items)})
}

func queryInt(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return n
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/service"
)

// DashboardHandler serves /api/dashboard/{admin,trainer,member}.
type DashboardHandler struct {
	Dashboard *service.DashboardService
}

func (h *DashboardHandler) Admin(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Dashboard.Admin(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DashboardHandler) Trainer(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Dashboard.Trainer(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DashboardHandler) Member(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Dashboard.Member(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/service"
)

// NotificationHandler serves the caller's inbox under /api/notifications.
type NotificationHandler struct {
	Notifications *service.NotificationService
}

func (h *NotificationHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	ns, err := h.Notifications.List(ctx, caller(c), queryInt(c, "limit", 50))
	if err != nil {
		return fail(c, err)
	}
	return list(c, ns)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Notifications.MarkRead(ctx, caller(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	n, err := h.Notifications.MarkAllRead(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": n})
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	n, err := h.Notifications.UnreadCount(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": n})
}

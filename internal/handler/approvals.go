package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/service"
)

// ApprovalHandler serves /api/approvals.
type ApprovalHandler struct {
	Approvals *service.ApprovalService
}

type rejectReq struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (h *ApprovalHandler) Pending(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	reqs, err := h.Approvals.Pending(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return list(c, reqs)
}

// History lists resolved requests, newest first (?limit=, default 100).
func (h *ApprovalHandler) History(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	reqs, err := h.Approvals.History(ctx, caller(c), queryInt(c, "limit", 100))
	if err != nil {
		return fail(c, err)
	}
	return list(c, reqs)
}

func (h *ApprovalHandler) Approve(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	req, err := h.Approvals.Approve(ctx, caller(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *ApprovalHandler) Reject(c echo.Context) error {
	var body rejectReq
	if err := bind(c, &body); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	req, err := h.Approvals.Reject(ctx, caller(c), c.Param("id"), body.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/service"
)

// PaymentHandler serves /api/payments.
type PaymentHandler struct {
	Payments *service.PaymentService
}

type paymentReq struct {
	MemberID        string     `json:"member_id" validate:"required"`
	Amount          float64    `json:"amount" validate:"gt=0"`
	PaymentMethod   string     `json:"payment_method" validate:"max=30"`
	Description     string     `json:"description" validate:"max=255"`
	Status          string     `json:"status" validate:"omitempty,oneof=pending completed failed"`
	NextPaymentDate *time.Time `json:"next_payment_date"`
}

// Record: POST /api/payments
func (h *PaymentHandler) Record(c echo.Context) error {
	var req paymentReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Payments.Record(ctx, caller(c), service.PaymentInput{
		MemberID:        req.MemberID,
		Amount:          req.Amount,
		Method:          req.PaymentMethod,
		Description:     req.Description,
		Status:          model.PaymentStatus(req.Status),
		NextPaymentDate: req.NextPaymentDate,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// List: GET /api/payments/:memberId
func (h *PaymentHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Payments.List(ctx, caller(c), c.Param("memberId"))
	if err != nil {
		return fail(c, err)
	}
	return list(c, out)
}

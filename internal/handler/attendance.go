package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/service"
)

// AttendanceHandler serves /api/attendance.
type AttendanceHandler struct {
	Attendance *service.AttendanceService
}

// checkInReq names the user to check in; empty means the caller.
type checkInReq struct {
	UserID string `json:"user_id"`
}

type qrCheckInReq struct {
	Code string `json:"code" validate:"required"`
}

func (h *AttendanceHandler) CheckIn(c echo.Context) error {
	var req checkInReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rec, err := h.Attendance.CheckIn(ctx, caller(c), req.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *AttendanceHandler) CheckOut(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	rec, err := h.Attendance.CheckOut(ctx, caller(c), c.Param("userId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// Status: GET /api/attendance/status?user_id= (default: the caller).
func (h *AttendanceHandler) Status(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	rec, err := h.Attendance.Status(ctx, caller(c), c.QueryParam("user_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"checked_in": rec != nil, "record": rec})
}

func (h *AttendanceHandler) Today(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	recs, err := h.Attendance.Today(ctx, caller(c), model.Center(c.QueryParam("center")))
	if err != nil {
		return fail(c, err)
	}
	return list(c, recs)
}

// History: GET /api/attendance/history/:userId?start_date=&end_date=
// Dates are YYYY-MM-DD (UTC) or RFC3339; end_date is inclusive.
func (h *AttendanceHandler) History(c echo.Context) error {
	from, err := parseDay(c.QueryParam("start_date"), false)
	if err != nil {
		return fail(c, err)
	}
	to, err := parseDay(c.QueryParam("end_date"), true)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	recs, err := h.Attendance.History(ctx, caller(c), c.Param("userId"), from, to)
	if err != nil {
		return fail(c, err)
	}
	return list(c, recs)
}

func parseDay(s string, end bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, apperr.Validation("dates must be YYYY-MM-DD")
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func (h *AttendanceHandler) GenerateQR(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	qr, err := h.Attendance.GenerateQR(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, qr)
}

func (h *AttendanceHandler) CurrentQR(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	qr, err := h.Attendance.CurrentQR(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, qr)
}

func (h *AttendanceHandler) QRCheckIn(c echo.Context) error {
	var req qrCheckInReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rec, err := h.Attendance.QRCheckIn(ctx, caller(c), req.Code)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

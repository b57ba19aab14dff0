package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/service"
)

// MemberHandler serves /api/members and /api/metrics.
type MemberHandler struct {
	Members *service.MemberService
}

type createMemberReq struct {
	Email            string                  `json:"email" validate:"required,email"`
	Phone            string                  `json:"phone" validate:"required,indian_phone"`
	Password         string                  `json:"password" validate:"required,min=6,max=72"`
	FullName         string                  `json:"full_name" validate:"required,max=120"`
	Center           string                  `json:"center" validate:"omitempty,center"`
	Address          string                  `json:"address" validate:"max=255"`
	EmergencyContact *model.EmergencyContact `json:"emergency_contact"`
	Goals            string                  `json:"goals" validate:"max=1000"`
	MedicalNotes     string                  `json:"medical_notes" validate:"max=2000"`
	Membership       model.Membership        `json:"membership"`
}

type updateMemberReq struct {
	FullName         *string                 `json:"full_name" validate:"omitempty,max=120"`
	Phone            *string                 `json:"phone" validate:"omitempty,indian_phone"`
	Address          *string                 `json:"address" validate:"omitempty,max=255"`
	EmergencyContact *model.EmergencyContact `json:"emergency_contact"`
	Goals            *string                 `json:"goals" validate:"omitempty,max=1000"`
	MedicalNotes     *string                 `json:"medical_notes" validate:"omitempty,max=2000"`
	Membership       *model.Membership       `json:"membership"`
	IsActive         *bool                   `json:"is_active"`
}

type centerReq struct {
	Center string `json:"center" validate:"required,center"`
}

type metricsReq struct {
	Weight     *float64   `json:"weight" validate:"omitempty,gte=0"`
	Height     *float64   `json:"height" validate:"omitempty,gte=0"`
	BodyFat    *float64   `json:"body_fat" validate:"omitempty,gte=0,lte=100"`
	Chest      *float64   `json:"chest" validate:"omitempty,gte=0"`
	Waist      *float64   `json:"waist" validate:"omitempty,gte=0"`
	Hips       *float64   `json:"hips" validate:"omitempty,gte=0"`
	Biceps     *float64   `json:"biceps" validate:"omitempty,gte=0"`
	Thighs     *float64   `json:"thighs" validate:"omitempty,gte=0"`
	Notes      string     `json:"notes" validate:"max=1000"`
	RecordedAt *time.Time `json:"recorded_at"`
}

func (r metricsReq) input() service.MetricsInput {
	return service.MetricsInput{
		Weight: r.Weight, Height: r.Height, BodyFat: r.BodyFat,
		Chest: r.Chest, Waist: r.Waist, Hips: r.Hips,
		Biceps: r.Biceps, Thighs: r.Thighs,
		Notes: r.Notes, RecordedAt: r.RecordedAt,
	}
}

// List: GET /api/members?center=&search=&active=&limit=&offset=
func (h *MemberHandler) List(c echo.Context) error {
	q := service.MemberQuery{
		Center: model.Center(c.QueryParam("center")),
		Search: strings.TrimSpace(c.QueryParam("search")),
		Limit:  queryInt(c, "limit", 100),
		Offset: queryInt(c, "offset", 0),
	}
	if v, err := strconv.ParseBool(c.QueryParam("active")); err == nil {
		q.Active = &v
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	members, err := h.Members.List(ctx, caller(c), q)
	if err != nil {
		return fail(c, err)
	}
	return list(c, members)
}

func (h *MemberHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Members.Get(ctx, caller(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MemberHandler) Create(c echo.Context) error {
	var req createMemberReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Members.Create(ctx, caller(c), service.CreateMemberInput{
		Email:            req.Email,
		Phone:            req.Phone,
		Password:         req.Password,
		FullName:         req.FullName,
		Center:           model.Center(req.Center),
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		Goals:            req.Goals,
		MedicalNotes:     req.MedicalNotes,
		Membership:       req.Membership,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *MemberHandler) Update(c echo.Context) error {
	var req updateMemberReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Members.Update(ctx, caller(c), c.Param("id"), service.MemberPatch{
		FullName:         req.FullName,
		Phone:            req.Phone,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		Goals:            req.Goals,
		MedicalNotes:     req.MedicalNotes,
		Membership:       req.Membership,
		IsActive:         req.IsActive,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MemberHandler) ChangeCenter(c echo.Context) error {
	var req centerReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Members.ChangeCenter(ctx, caller(c), c.Param("id"), model.Center(req.Center))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Delete deactivates the member; rows are never removed.
func (h *MemberHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Members.Deactivate(ctx, caller(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *MemberHandler) ListMetrics(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	ms, err := h.Members.ListMetrics(ctx, caller(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return list(c, ms)
}

func (h *MemberHandler) AddMetrics(c echo.Context) error {
	var req metricsReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Members.AddMetrics(ctx, caller(c), c.Param("id"), req.input())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *MemberHandler) UpdateMetrics(c echo.Context) error {
	var req metricsReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Members.UpdateMetrics(ctx, caller(c), c.Param("id"), req.input())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MemberHandler) DeleteMetrics(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Members.DeleteMetrics(ctx, caller(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

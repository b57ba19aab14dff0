package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/service"
)

// TrainerHandler serves /api/trainers. Writes are reserved for the primary
// admin by the service.
type TrainerHandler struct {
	Trainers *service.TrainerService
}

type createTrainerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,indian_phone"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"full_name" validate:"required,max=120"`
	Center   string `json:"center" validate:"required,center"`
}

type updateTrainerReq struct {
	FullName *string `json:"full_name" validate:"omitempty,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,indian_phone"`
	IsActive *bool   `json:"is_active"`
}

func (h *TrainerHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	ts, err := h.Trainers.List(ctx, caller(c), model.Center(c.QueryParam("center")))
	if err != nil {
		return fail(c, err)
	}
	return list(c, ts)
}

func (h *TrainerHandler) Create(c echo.Context) error {
	var req createTrainerReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Trainers.Create(ctx, caller(c), service.CreateTrainerInput{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		FullName: req.FullName,
		Center:   model.Center(req.Center),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *TrainerHandler) Update(c echo.Context) error {
	var req updateTrainerReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Trainers.Update(ctx, caller(c), c.Param("id"), service.TrainerPatch{
		FullName: req.FullName,
		Phone:    req.Phone,
		IsActive: req.IsActive,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TrainerHandler) ChangeCenter(c echo.Context) error {
	var req centerReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Trainers.ChangeCenter(ctx, caller(c), c.Param("id"), model.Center(req.Center))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TrainerHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Trainers.Deactivate(ctx, caller(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

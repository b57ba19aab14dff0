package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/service"
)

// AnnouncementHandler serves /api/announcements.
type AnnouncementHandler struct {
	Announcements *service.AnnouncementService
}

type announcementReq struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Content      string   `json:"content" validate:"required,max=5000"`
	Target       string   `json:"target" validate:"omitempty,oneof=all members trainers center selected"`
	TargetCenter string   `json:"target_center" validate:"omitempty,center"`
	TargetUsers  []string `json:"target_users" validate:"omitempty,max=1000,dive,required"`
}

func (r announcementReq) input() service.AnnouncementInput {
	return service.AnnouncementInput{
		Title:        r.Title,
		Content:      r.Content,
		Target:       model.AnnouncementTarget(r.Target),
		TargetCenter: model.Center(r.TargetCenter),
		TargetUsers:  r.TargetUsers,
	}
}

// List returns the announcements visible to the caller, newest first.
func (h *AnnouncementHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	as, err := h.Announcements.List(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return list(c, as)
}

func (h *AnnouncementHandler) Create(c echo.Context) error {
	var req announcementReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	a, err := h.Announcements.Create(ctx, caller(c), req.input())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *AnnouncementHandler) Update(c echo.Context) error {
	var req announcementReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	a, err := h.Announcements.Update(ctx, caller(c), c.Param("id"), req.input())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AnnouncementHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Announcements.Delete(ctx, caller(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/service"
)

// AuthHandler serves /api/auth.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	if auth == nil {
		panic("nil auth service passed to NewAuthHandler")
	}
	return &AuthHandler{Auth: auth}
}

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,indian_phone"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"full_name" validate:"required,max=120"`
	Role     string `json:"role" validate:"required,role"`
	Center   string `json:"center" validate:"omitempty,center"`
}

// login accepts either "identifier" or the explicit email/phone fields.
type loginReq struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Password   string `json:"password" validate:"required"`
}

func (r loginReq) id() string {
	switch {
	case r.Identifier != "":
		return r.Identifier
	case r.Email != "":
		return r.Email
	}
	return r.Phone
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type profileReq struct {
	FullName         *string                 `json:"full_name" validate:"omitempty,max=120"`
	Phone            *string                 `json:"phone" validate:"omitempty,indian_phone"`
	Address          *string                 `json:"address" validate:"omitempty,max=255"`
	EmergencyContact *model.EmergencyContact `json:"emergency_contact"`
	Goals            *string                 `json:"goals" validate:"omitempty,max=1000"`
}

type pushTokenReq struct {
	PushToken string `json:"push_token" validate:"max=255"`
}

// Register: POST /api/auth/register. Admins, trainers and members may
// self-register; all but the first admin start pending.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess, err := h.Auth.Register(ctx, service.RegisterInput{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		FullName: req.FullName,
		Role:     model.Role(req.Role),
		Center:   model.Center(req.Center),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, sess)
}

// Login: POST /api/auth/login with email or phone.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	if req.id() == "" {
		return fail(c, apperr.Validation("email or phone is required"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess, err := h.Auth.Login(ctx, req.id(), req.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

// Refresh rotates the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess, err := h.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

// Logout revokes the given refresh token. Unknown tokens are not an error.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Auth.Logout(ctx, req.RefreshToken); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Auth.Me(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req profileReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Auth.UpdateProfile(ctx, caller(c), service.ProfileInput{
		FullName:         req.FullName,
		Phone:            req.Phone,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		Goals:            req.Goals,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// SetPushToken stores the Expo token of the caller's device; an empty token
// unregisters it.
func (h *AuthHandler) SetPushToken(c echo.Context) error {
	var req pushTokenReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Auth.SetPushToken(ctx, caller(c), req.PushToken); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/service"
)

// MessageHandler serves /api/messages.
type MessageHandler struct {
	Messages *service.MessageService
}

type sendMessageReq struct {
	ReceiverID  string `json:"receiver_id" validate:"required"`
	Content     string `json:"content" validate:"required"`
	MessageType string `json:"message_type" validate:"omitempty,oneof=text image pdf"`
}

type deleteSelectedReq struct {
	MessageIDs []string `json:"message_ids" validate:"required,min=1,max=500,dive,required"`
}

func (h *MessageHandler) Contacts(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	cs, err := h.Messages.Contacts(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return list(c, cs)
}

func (h *MessageHandler) Conversations(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	cs, err := h.Messages.Conversations(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return list(c, cs)
}

func (h *MessageHandler) UnreadCount(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	n, err := h.Messages.UnreadCount(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": n})
}

func (h *MessageHandler) Send(c echo.Context) error {
	var req sendMessageReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Messages.Send(ctx, caller(c), service.SendInput{
		ReceiverID:  req.ReceiverID,
		Content:     req.Content,
		MessageType: model.MessageType(req.MessageType),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// Conversation returns the thread with :otherUserId and marks the caller's
// incoming messages in it as read.
func (h *MessageHandler) Conversation(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	ms, err := h.Messages.Conversation(ctx, caller(c), c.Param("otherUserId"))
	if err != nil {
		return fail(c, err)
	}
	return list(c, ms)
}

func (h *MessageHandler) DeleteConversation(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	n, err := h.Messages.DeleteConversation(ctx, caller(c), c.Param("otherUserId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}

func (h *MessageHandler) DeleteSelected(c echo.Context) error {
	var req deleteSelectedReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	n, err := h.Messages.DeleteSelected(ctx, caller(c), req.MessageIDs)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}

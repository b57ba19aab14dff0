package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
	"github.com/iliyamo/gym-management/internal/realtime"
	"github.com/iliyamo/gym-management/internal/repository"
)

const (
	maxMessageLength     = 4000
	conversationPageSize = 200
)

// MessageService implements direct messaging. Who may talk to whom is
// decided by policy.CanChat.
type MessageService struct {
	Users    UserStore
	Messages MessageStore
	Notifier *Notifier
	Live     LiveChannel
	Clock    Clock
}

func (s *MessageService) self(ctx context.Context, actor policy.Actor) (model.User, error) {
	if err := policy.Gate(actor); err != nil {
		return model.User{}, err
	}
	u, err := s.Users.GetByID(ctx, actor.ID)
	return u, storeErr(err, "user")
}

// peer loads the other side of a conversation.
func (s *MessageService) peer(ctx context.Context, id string) (model.User, error) {
	other, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, storeErr(err, "user")
	}
	return other, nil
}

// Contacts lists the users the caller may message: everybody for admins,
// otherwise the caller's own center plus the admins.
func (s *MessageService) Contacts(ctx context.Context, actor policy.Actor) ([]model.Contact, error) {
	me, err := s.self(ctx, actor)
	if err != nil {
		return nil, err
	}
	active := true
	q := repository.UserQuery{Active: &active, ApprovedOnly: true}
	var candidates []model.User
	if me.Role == model.RoleAdmin {
		candidates, err = s.Users.List(ctx, q)
	} else {
		q.Center = me.Center
		candidates, err = s.Users.List(ctx, q)
		if err == nil {
			var admins []model.User
			admins, err = s.Users.List(ctx, repository.UserQuery{Role: model.RoleAdmin, Active: &active, ApprovedOnly: true})
			candidates = append(candidates, admins...)
		}
	}
	if err != nil {
		return nil, storeErr(err, "user")
	}
	out := []model.Contact{}
	seen := map[string]bool{}
	for _, u := range candidates {
		if seen[u.ID] || policy.CanChat(me, u) != nil {
			continue
		}
		seen[u.ID] = true
		out = append(out, model.ContactOf(u))
	}
	return out, nil
}

// SendInput is a new direct message.
type SendInput struct {
	ReceiverID  string
	Content     string
	MessageType model.MessageType
}

// Send stores a message, pushes it to the receiver's live connection and
// notifies them.
func (s *MessageService) Send(ctx context.Context, actor policy.Actor, in SendInput) (model.Message, error) {
	me, err := s.self(ctx, actor)
	if err != nil {
		return model.Message{}, err
	}
	content := strings.TrimSpace(in.Content)
	switch {
	case in.ReceiverID == "":
		return model.Message{}, apperr.Validation("receiver_id is required")
	case content == "":
		return model.Message{}, apperr.Validation("content is required")
	case utf8.RuneCountInString(content) > maxMessageLength:
		return model.Message{}, apperr.Validation("content is too long")
	}
	kind := in.MessageType
	switch kind {
	case "":
		kind = model.MessageText
	case model.MessageText, model.MessageImage, model.MessagePDF:
	default:
		return model.Message{}, apperr.Validation("message_type must be text, image or pdf")
	}
	to, err := s.peer(ctx, in.ReceiverID)
	if err != nil {
		return model.Message{}, err
	}
	if err := policy.CanChat(me, to); err != nil {
		return model.Message{}, err
	}
	msg := model.Message{
		SenderID:    me.ID,
		ReceiverID:  to.ID,
		Content:     content,
		MessageType: kind,
		CreatedAt:   s.Clock.now(),
	}
	if err := s.Messages.Create(ctx, &msg); err != nil {
		return model.Message{}, storeErr(err, "message")
	}
	if s.Live != nil {
		s.Live.SendTo(to.ID, realtime.Event{Name: realtime.EventMessage, Data: struct {
			model.Message
			SenderName string `json:"sender_name"`
		}{msg, me.FullName}})
	}
	preview := excerpt(content, 80)
	if kind != model.MessageText {
		preview = "sent an attachment"
	}
	s.Notifier.Notify(ctx, to.ID, model.NotifyMessage, "New message from "+me.FullName, preview,
		map[string]string{"sender_id": me.ID, "message_id": msg.ID})
	return msg, nil
}

// Conversation returns the messages exchanged with otherID, oldest first,
// and marks the ones addressed to the caller as read.
func (s *MessageService) Conversation(ctx context.Context, actor policy.Actor, otherID string) ([]model.Message, error) {
	me, err := s.self(ctx, actor)
	if err != nil {
		return nil, err
	}
	if otherID == me.ID {
		return nil, apperr.Validation("invalid conversation")
	}
	if _, err := s.peer(ctx, otherID); err != nil {
		return nil, err
	}
	msgs, err := s.Messages.Conversation(ctx, me.ID, otherID, conversationPageSize)
	if err != nil {
		return nil, storeErr(err, "message")
	}
	if _, err := s.Messages.MarkRead(ctx, me.ID, otherID); err != nil {
		return nil, storeErr(err, "message")
	}
	for i := range msgs {
		if msgs[i].ReceiverID == me.ID {
			msgs[i].IsRead = true
		}
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

// Conversations lists the caller's conversations, most recent first. Peers
// that no longer exist are skipped.
func (s *MessageService) Conversations(ctx context.Context, actor policy.Actor) ([]model.Conversation, error) {
	me, err := s.self(ctx, actor)
	if err != nil {
		return nil, err
	}
	sums, err := s.Messages.Conversations(ctx, me.ID)
	if err != nil {
		return nil, storeErr(err, "message")
	}
	out := make([]model.Conversation, 0, len(sums))
	for _, c := range sums {
		other, err := s.Users.GetByID(ctx, c.PeerID)
		if err != nil {
			continue
		}
		out = append(out, model.Conversation{OtherUser: model.ContactOf(other), LastMessage: c.LastMessage, UnreadCount: c.Unread})
	}
	return out, nil
}

// UnreadCount counts unread messages addressed to the caller.
func (s *MessageService) UnreadCount(ctx context.Context, actor policy.Actor) (int, error) {
	if err := policy.Gate(actor); err != nil {
		return 0, err
	}
	n, err := s.Messages.UnreadCount(ctx, actor.ID)
	return n, storeErr(err, "message")
}

// DeleteSelected removes the given messages where the caller is the sender or
// the receiver. Ids of other conversations are ignored.
func (s *MessageService) DeleteSelected(ctx context.Context, actor policy.Actor, ids []string) (int64, error) {
	if err := policy.Gate(actor); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, apperr.Validation("message_ids is required")
	}
	n, err := s.Messages.DeleteSelected(ctx, actor.ID, ids)
	return n, storeErr(err, "message")
}

// DeleteConversation removes every message between the caller and otherID.
func (s *MessageService) DeleteConversation(ctx context.Context, actor policy.Actor, otherID string) (int64, error) {
	if err := policy.Gate(actor); err != nil {
		return 0, err
	}
	if otherID == "" || otherID == actor.ID {
		return 0, apperr.Validation("invalid conversation")
	}
	n, err := s.Messages.DeleteConversation(ctx, actor.ID, otherID)
	return n, storeErr(err, "message")
}

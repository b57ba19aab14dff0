package service

import (
	"context"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
)

// NotificationService exposes the caller's own notification inbox.
type NotificationService struct {
	Store NotificationStore
}

func (s *NotificationService) List(ctx context.Context, actor policy.Actor, limit int) ([]model.Notification, error) {
	if err := policy.Require(actor, policy.Notification, policy.Read); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	out, err := s.Store.List(ctx, actor.ID, limit)
	if err != nil {
		return nil, storeErr(err, "notification")
	}
	if out == nil {
		out = []model.Notification{}
	}
	return out, nil
}

// MarkRead flags one notification. Another user's notification is reported
// as not found.
func (s *NotificationService) MarkRead(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.Require(actor, policy.Notification, policy.Update); err != nil {
		return err
	}
	return storeErr(s.Store.MarkRead(ctx, actor.ID, id), "notification")
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor policy.Actor) (int64, error) {
	if err := policy.Require(actor, policy.Notification, policy.Update); err != nil {
		return 0, err
	}
	n, err := s.Store.MarkAllRead(ctx, actor.ID)
	return n, storeErr(err, "notification")
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor policy.Actor) (int, error) {
	if err := policy.Require(actor, policy.Notification, policy.Read); err != nil {
		return 0, err
	}
	n, err := s.Store.UnreadCount(ctx, actor.ID)
	return n, storeErr(err, "notification")
}

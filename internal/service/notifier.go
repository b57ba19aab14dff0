package service

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/gym-management/internal/metrics"
	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/queue"
	"github.com/iliyamo/gym-management/internal/realtime"
)

const (
	defaultFanoutWorkers = 8
	defaultFanoutTimeout = 2 * time.Minute
)

// Notifier persists a notification, pushes it over the live channel and
// queues a device push. Only the persisted copy is authoritative; live and
// push delivery are best effort and never fail the caller.
type Notifier struct {
	Store NotificationStore
	Users UserStore
	Live  LiveChannel
	Push  PushQueue
	Log   *zap.Logger
	Clock Clock

	// FanoutWorkers bounds concurrent deliveries of one NotifyMany call and
	// FanoutTimeout bounds the whole call.
	FanoutWorkers int
	FanoutTimeout time.Duration

	pending sync.WaitGroup
}

func (n *Notifier) log() *zap.Logger {
	if n.Log == nil {
		return zap.NewNop()
	}
	return n.Log
}

// Notify delivers one notification to userID.
func (n *Notifier) Notify(ctx context.Context, userID, kind, title, body string, data map[string]string) {
	if n == nil || userID == "" {
		return
	}
	rec := &model.Notification{
		UserID:    userID,
		Title:     title,
		Body:      body,
		Type:      kind,
		Data:      data,
		CreatedAt: n.Clock.now(),
	}
	if err := n.Store.Create(ctx, rec); err != nil {
		n.log().Error("persist notification", zap.String("user_id", userID), zap.String("type", kind), zap.Error(err))
		return
	}
	metrics.NotificationsTotal.WithLabelValues(kind).Inc()

	if n.Live != nil {
		n.Live.SendTo(userID, realtime.Event{Name: realtime.EventNotification, Data: rec})
	}
	n.queuePush(ctx, rec)
}

// NotifyMany fans one notification out to several users in the background.
// The fan-out is detached from ctx, so an audience larger than the request
// deadline allows still gets every inbox copy.
func (n *Notifier) NotifyMany(ctx context.Context, userIDs []string, kind, title, body string, data map[string]string) {
	if n == nil || len(userIDs) == 0 {
		return
	}
	ids := append([]string(nil), userIDs...)
	workers := n.FanoutWorkers
	if workers <= 0 {
		workers = defaultFanoutWorkers
	}
	timeout := n.FanoutTimeout
	if timeout <= 0 {
		timeout = defaultFanoutTimeout
	}
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	n.pending.Add(1)
	go func() {
		defer n.pending.Done()
		defer cancel()
		started := time.Now()
		var g errgroup.Group
		g.SetLimit(workers)
		for _, id := range ids {
			g.Go(func() error {
				n.Notify(fctx, id, kind, title, body, data)
				return nil
			})
		}
		_ = g.Wait()
		n.log().Debug("notification fan-out done", zap.String("type", kind),
			zap.Int("recipients", len(ids)), zap.Duration("took", time.Since(started)))
	}()
}

// Wait blocks until every background fan-out has finished.
func (n *Notifier) Wait() {
	if n != nil {
		n.pending.Wait()
	}
}

func (n *Notifier) queuePush(ctx context.Context, rec *model.Notification) {
	if n.Push == nil || n.Users == nil {
		return
	}
	u, err := n.Users.GetByID(ctx, rec.UserID)
	if err != nil || u.PushToken == "" {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	job := queue.PushJob{
		NotificationID: rec.ID,
		UserID:         rec.UserID,
		PushToken:      u.PushToken,
		Title:          rec.Title,
		Body:           rec.Body,
		Type:           rec.Type,
		Data:           rec.Data,
		CreatedAt:      rec.CreatedAt,
	}
	if err := n.Push.Publish(pctx, job); err != nil {
		n.log().Warn("queue push notification", zap.String("user_id", rec.UserID), zap.Error(err))
	}
}

// excerpt shortens s to at most limit runes, marking the cut with "...".
// Multi-byte characters are never split.
func excerpt(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit]) + "..."
}

// Package service holds the gym's use cases. Every exported method takes the
// caller as an explicit policy.Actor, consults the policy table before
// touching storage and reports failures as apperr values.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
	"github.com/iliyamo/gym-management/internal/queue"
	"github.com/iliyamo/gym-management/internal/realtime"
	"github.com/iliyamo/gym-management/internal/repository"
)

// UserStore is implemented by repository.UserRepo.
type UserStore interface {
	Create(ctx context.Context, u *model.User, approval *model.ApprovalRequest) error
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByPhone(ctx context.Context, phone string) (model.User, error)
	GetPrimaryAdmin(ctx context.Context) (model.User, error)
	List(ctx context.Context, q repository.UserQuery) ([]model.User, error)
	Count(ctx context.Context, q repository.UserQuery) (int, error)
	CountByCenter(ctx context.Context, role model.Role) (map[model.Center]int, error)
	Update(ctx context.Context, u model.User) error
	SetPushToken(ctx context.Context, id, token string) error
	SetActive(ctx context.Context, id string, active bool) error
	SetCenter(ctx context.Context, id string, center model.Center) error
	DuePaymentReminders(ctx context.Context, until, day time.Time) ([]model.User, error)
	MarkPaymentReminded(ctx context.Context, id string, day time.Time) (bool, error)
}

// TokenStore is implemented by repository.TokenRepo.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID string, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID string) error
}

// ApprovalStore is implemented by repository.ApprovalRepo.
type ApprovalStore interface {
	Get(ctx context.Context, id string) (model.ApprovalRequest, error)
	List(ctx context.Context, q repository.ApprovalQuery) ([]model.ApprovalRequest, error)
	CountPending(ctx context.Context, roles []model.Role, center model.Center) (int, error)
	Resolve(ctx context.Context, req model.ApprovalRequest, decision model.ApprovalStatus, reviewer, reason string, at time.Time) error
}

// AttendanceStore is implemented by repository.AttendanceRepo.
type AttendanceStore interface {
	CheckIn(ctx context.Context, rec *model.AttendanceRecord) error
	CheckOut(ctx context.Context, userID string, at time.Time) (model.AttendanceRecord, error)
	OpenRecord(ctx context.Context, userID string) (model.AttendanceRecord, error)
	List(ctx context.Context, q repository.AttendanceQuery) ([]model.AttendanceRecord, error)
	Count(ctx context.Context, q repository.AttendanceQuery) (int, error)
}

// QRCodes is implemented by repository.QRStore.
type QRCodes interface {
	Generate(ctx context.Context, now time.Time) (repository.QRCode, error)
	Current(ctx context.Context, now time.Time) (repository.QRCode, error)
	Validate(ctx context.Context, code string, now time.Time) (bool, error)
}

// MessageStore is implemented by repository.MessageRepo.
type MessageStore interface {
	Create(ctx context.Context, m *model.Message) error
	Conversation(ctx context.Context, a, b string, limit int) ([]model.Message, error)
	MarkRead(ctx context.Context, receiver, sender string) (int64, error)
	Conversations(ctx context.Context, userID string) ([]repository.ConversationSummary, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	DeleteSelected(ctx context.Context, userID string, ids []string) (int64, error)
	DeleteConversation(ctx context.Context, a, b string) (int64, error)
}

// AnnouncementStore is implemented by repository.AnnouncementRepo.
type AnnouncementStore interface {
	Create(ctx context.Context, a *model.Announcement) error
	Get(ctx context.Context, id string) (model.Announcement, error)
	ListActive(ctx context.Context, limit int) ([]model.Announcement, error)
	Update(ctx context.Context, a *model.Announcement) error
	Deactivate(ctx context.Context, id string) error
}

// MerchandiseStore is implemented by repository.MerchandiseRepo.
type MerchandiseStore interface {
	Create(ctx context.Context, it *model.MerchandiseItem) error
	Update(ctx context.Context, it *model.MerchandiseItem) error
	Deactivate(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (model.MerchandiseItem, error)
	List(ctx context.Context, category string) ([]model.MerchandiseItem, error)
}

// OrderStore is implemented by repository.OrderRepo.
type OrderStore interface {
	Place(ctx context.Context, o *model.Order) error
	Transition(ctx context.Context, id string, from, to model.OrderStatus) error
	Get(ctx context.Context, id string) (model.Order, error)
	List(ctx context.Context, q repository.OrderQuery) ([]model.Order, error)
	CountByStatus(ctx context.Context, status model.OrderStatus) (int, error)
}

// PlanStore is implemented by repository.PlanRepo.
type PlanStore interface {
	CreateWorkout(ctx context.Context, p *model.WorkoutPlan) error
	GetWorkout(ctx context.Context, id string) (model.WorkoutPlan, error)
	ListWorkouts(ctx context.Context, memberID string) ([]model.WorkoutPlan, error)
	ActiveWorkout(ctx context.Context, memberID string) (model.WorkoutPlan, error)
	UpdateWorkout(ctx context.Context, p *model.WorkoutPlan) error
	DeleteWorkout(ctx context.Context, id string) error
	CompleteExercise(ctx context.Context, planID string, index int, at time.Time) (model.WorkoutPlan, error)

	CreateDiet(ctx context.Context, p *model.DietPlan) error
	GetDiet(ctx context.Context, id string) (model.DietPlan, error)
	ListDiets(ctx context.Context, memberID string) ([]model.DietPlan, error)
	UpdateDiet(ctx context.Context, p *model.DietPlan) error
	DeleteDiet(ctx context.Context, id string) error

	AddMetrics(ctx context.Context, m *model.BodyMetrics) error
	GetMetrics(ctx context.Context, id string) (model.BodyMetrics, error)
	ListMetrics(ctx context.Context, memberID string, limit int) ([]model.BodyMetrics, error)
	UpdateMetrics(ctx context.Context, m *model.BodyMetrics) error
	DeleteMetrics(ctx context.Context, id string) error
}

// PaymentStore is implemented by repository.PaymentRepo.
type PaymentStore interface {
	Record(ctx context.Context, p *model.Payment) error
	ListByMember(ctx context.Context, memberID string, limit int) ([]model.Payment, error)
	Revenue(ctx context.Context, from time.Time, center model.Center) (float64, error)
}

// NotificationStore is implemented by repository.NotificationRepo.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	List(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// LiveChannel is implemented by realtime.Hub.
type LiveChannel interface {
	SendTo(userID string, ev realtime.Event) bool
	Broadcast(ev realtime.Event, match func(policy.Actor) bool) int
	Disconnect(userID string) bool
}

// dropLive closes userID's live connection after an account change so the
// client reconnects under its current identity.
func dropLive(live LiveChannel, userID string) {
	if live != nil {
		live.Disconnect(userID)
	}
}

// PushQueue is implemented by queue.Publisher.
type PushQueue interface {
	Publish(ctx context.Context, job queue.PushJob) error
}

// Clock returns the current time; tests replace it.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

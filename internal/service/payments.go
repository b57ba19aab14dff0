package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
)

// PaymentService records membership payments taken by staff. Admins reach
// every member, trainers their own center, members read their own history.
type PaymentService struct {
	Users    UserStore
	Payments PaymentStore
	Notifier *Notifier
	Clock    Clock
}

// PaymentInput is a payment as entered at the front desk.
type PaymentInput struct {
	MemberID        string
	Amount          float64
	Method          string
	Description     string
	Status          model.PaymentStatus
	NextPaymentDate *time.Time
}

// Record stores a payment against a member and notifies them.
func (s *PaymentService) Record(ctx context.Context, actor policy.Actor, in PaymentInput) (model.Payment, error) {
	u, err := loadMember(ctx, s.Users, actor, in.MemberID, policy.Payment, policy.Create)
	if err != nil {
		return model.Payment{}, err
	}
	if in.Amount <= 0 {
		return model.Payment{}, apperr.Validation("amount must be positive")
	}
	p := model.Payment{
		MemberID:        u.ID,
		Center:          u.Center,
		Amount:          in.Amount,
		Method:          strings.TrimSpace(in.Method),
		Description:     strings.TrimSpace(in.Description),
		Status:          in.Status,
		RecordedBy:      actor.ID,
		PaidAt:          s.Clock.now(),
		NextPaymentDate: in.NextPaymentDate,
	}
	if p.Method == "" {
		p.Method = "cash"
	}
	if p.Status == "" {
		p.Status = model.PaymentCompleted
	}
	if !p.Status.Valid() {
		return model.Payment{}, apperr.Validation("status must be pending, completed or failed")
	}
	if err := s.Payments.Record(ctx, &p); err != nil {
		return model.Payment{}, storeErr(err, "member")
	}

	amount := "₹" + strconv.FormatFloat(p.Amount, 'f', -1, 64)
	body := "Your payment of " + amount + " has been recorded. Thank you!"
	if p.Status != model.PaymentCompleted {
		body = "Your payment of " + amount + " was recorded as " + string(p.Status) + "."
	}
	s.Notifier.Notify(ctx, u.ID, model.NotifyPaymentDone, "Payment Recorded", body,
		map[string]string{"payment_id": p.ID, "status": string(p.Status)})
	return p, nil
}

// List returns a member's payment history, newest first.
func (s *PaymentService) List(ctx context.Context, actor policy.Actor, memberID string) ([]model.Payment, error) {
	u, err := loadMember(ctx, s.Users, actor, memberID, policy.Payment, policy.Read)
	if err != nil {
		return nil, err
	}
	out, err := s.Payments.ListByMember(ctx, u.ID, 0)
	if err != nil {
		return nil, storeErr(err, "payment")
	}
	if out == nil {
		out = []model.Payment{}
	}
	return out, nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/model"
)

// ReminderJob notifies members whose next payment is due soon. Each member
// is reminded at most once per UTC day, even with several instances running.
type ReminderJob struct {
	Users    UserStore
	Notifier *Notifier
	LeadDays int
	Log      *zap.Logger
	Clock    Clock
}

// Run sends the reminders due now and returns how many were sent.
func (j *ReminderJob) Run(ctx context.Context) (int, error) {
	now := j.Clock.now()
	today := dayStart(now)
	lead := j.LeadDays
	if lead <= 0 {
		lead = 3
	}
	due, err := j.Users.DuePaymentReminders(ctx, today.AddDate(0, 0, lead), today)
	if err != nil {
		return 0, storeErr(err, "member")
	}
	sent := 0
	for _, u := range due {
		ok, err := j.Users.MarkPaymentReminded(ctx, u.ID, today)
		if err != nil {
			return sent, storeErr(err, "member")
		}
		if !ok || u.Membership.NextPaymentDate == nil {
			continue
		}
		title, body := reminderText(*u.Membership.NextPaymentDate, today)
		j.Notifier.Notify(ctx, u.ID, model.NotifyPayment, title, body,
			map[string]string{"next_payment_date": u.Membership.NextPaymentDate.Format("2006-01-02")})
		sent++
	}
	return sent, nil
}

func reminderText(due, today time.Time) (string, string) {
	days := int(dayStart(due).Sub(today).Hours() / 24)
	switch {
	case days < 0:
		return "Payment overdue", fmt.Sprintf("Your membership payment was due on %s", due.Format("02 Jan 2006"))
	case days == 0:
		return "Payment due today", "Your membership payment is due today"
	case days == 1:
		return "Payment due tomorrow", "Your membership payment is due tomorrow"
	}
	return "Payment reminder", fmt.Sprintf("Your membership payment is due in %d days", days)
}

// Schedule registers the job on a cron scheduler. The caller starts and stops it.
func (j *ReminderJob) Schedule(ctx context.Context, c *cron.Cron, spec string) (cron.EntryID, error) {
	log := j.Log
	if log == nil {
		log = zap.NewNop()
	}
	return c.AddFunc(spec, func() {
		rctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		n, err := j.Run(rctx)
		if err != nil {
			log.Error("payment reminders", zap.Int("sent", n), zap.Error(err))
			return
		}
		log.Info("payment reminders", zap.Int("sent", n))
	})
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/gym-management/internal/model"
)

// PaymentRepo stores membership payments recorded by staff.
type PaymentRepo struct{ DB *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

const paymentColumns = "id, member_id, center, amount, payment_method, description, status, recorded_by, payment_date, next_payment_date"

// Record inserts the payment and, when it carries a next payment date, moves
// the member's due date in the same transaction. Moving the date also clears
// the reminder marker so the new due date gets its own reminders.
func (r *PaymentRepo) Record(ctx context.Context, p *model.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now().UTC()
	}
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO payments ("+paymentColumns+") VALUES (?,?,?,?,?,?,?,?,?,?)",
			p.ID, p.MemberID, string(p.Center), p.Amount, p.Method, nullString(p.Description), string(p.Status),
			p.RecordedBy, p.PaidAt, nullTime(p.NextPaymentDate)); err != nil {
			return err
		}
		if p.NextPaymentDate == nil {
			return nil
		}
		res, err := tx.ExecContext(ctx,
			"UPDATE users SET next_payment_date=?, last_payment_reminder=NULL WHERE id=? AND role='member'",
			*p.NextPaymentDate, p.MemberID)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
}

// ListByMember returns a member's payments, newest first.
func (r *PaymentRepo) ListByMember(ctx context.Context, memberID string, limit int) ([]model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE member_id=? ORDER BY payment_date DESC LIMIT ?", memberID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Payment
	for rows.Next() {
		var (
			p      model.Payment
			center string
			status string
			desc   sql.NullString
			next   sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.MemberID, &center, &p.Amount, &p.Method, &desc, &status,
			&p.RecordedBy, &p.PaidAt, &next); err != nil {
			return nil, err
		}
		p.Center, p.Status = model.Center(center), model.PaymentStatus(status)
		p.Description, p.NextPaymentDate = desc.String, timePtr(next)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Revenue sums completed payments taken since from. An empty center means
// every center.
func (r *PaymentRepo) Revenue(ctx context.Context, from time.Time, center model.Center) (float64, error) {
	q := "SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status='completed' AND payment_date >= ?"
	args := []any{from}
	if center != "" {
		q += " AND center=?"
		args = append(args, string(center))
	}
	var total float64
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(&total)
	return total, err
}

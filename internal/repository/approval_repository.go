package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/gym-management/internal/model"
)

// ApprovalRepo stores approval requests.
type ApprovalRepo struct{ DB *sql.DB }

func NewApprovalRepo(db *sql.DB) *ApprovalRepo { return &ApprovalRepo{DB: db} }

func insertApprovalTx(ctx context.Context, tx *sql.Tx, a *model.ApprovalRequest) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = model.StatusPending
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO approval_requests (id, user_id, user_role, center, status, created_at) VALUES (?,?,?,?,?,?)",
		a.ID, a.UserID, a.UserRole, nullString(string(a.Center)), a.Status, a.CreatedAt)
	return err
}

const approvalColumns = `a.id, a.user_id, a.user_role, a.center, a.status, a.reviewed_by, a.reviewed_at,
	a.rejection_reason, a.created_at, u.full_name, u.email, u.phone`

func scanApproval(s rowScanner) (model.ApprovalRequest, error) {
	var (
		a                        model.ApprovalRequest
		center, reviewer, reason sql.NullString
		reviewedAt               sql.NullTime
	)
	err := s.Scan(&a.ID, &a.UserID, &a.UserRole, &center, &a.Status, &reviewer, &reviewedAt, &reason,
		&a.CreatedAt, &a.FullName, &a.Email, &a.Phone)
	if err != nil {
		return model.ApprovalRequest{}, err
	}
	a.Center = model.Center(center.String)
	a.ReviewedBy = reviewer.String
	a.RejectionReason = reason.String
	a.ReviewedAt = timePtr(reviewedAt)
	return a, nil
}

// Get returns one request joined with the requester's identity.
func (r *ApprovalRepo) Get(ctx context.Context, id string) (model.ApprovalRequest, error) {
	a, err := scanApproval(r.DB.QueryRowContext(ctx,
		"SELECT "+approvalColumns+" FROM approval_requests a JOIN users u ON u.id=a.user_id WHERE a.id=? LIMIT 1", id))
	return a, notFound(err)
}

// ApprovalQuery filters List. Roles empty means any role; Center empty means
// any center.
type ApprovalQuery struct {
	Status model.ApprovalStatus
	Roles  []model.Role
	Center model.Center
	Limit  int
}

func (q ApprovalQuery) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.Status != "" {
		conds = append(conds, "a.status=?")
		args = append(args, q.Status)
	} else {
		conds = append(conds, "a.status<>'pending'")
	}
	if len(q.Roles) > 0 {
		conds = append(conds, "a.user_role IN (?"+strings.Repeat(",?", len(q.Roles)-1)+")")
		for _, r := range q.Roles {
			args = append(args, r)
		}
	}
	if q.Center != "" {
		conds = append(conds, "a.center=?")
		args = append(args, q.Center)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns requests matching q. With an empty Status it returns resolved
// requests (history), newest first.
func (r *ApprovalRepo) List(ctx context.Context, q ApprovalQuery) ([]model.ApprovalRequest, error) {
	where, args := q.where()
	query := "SELECT " + approvalColumns + " FROM approval_requests a JOIN users u ON u.id=a.user_id" + where
	if q.Status == model.StatusPending {
		query += " ORDER BY a.created_at"
	} else {
		query += " ORDER BY COALESCE(a.reviewed_at, a.created_at) DESC"
	}
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ApprovalRequest
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountPending counts pending requests for the given roles and center.
func (r *ApprovalRepo) CountPending(ctx context.Context, roles []model.Role, center model.Center) (int, error) {
	where, args := ApprovalQuery{Status: model.StatusPending, Roles: roles, Center: center}.where()
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM approval_requests a"+where, args...).Scan(&n)
	return n, err
}

// Resolve records the decision and updates the user in one transaction. The
// request must still be pending; otherwise ErrAlreadyProcessed is returned and
// nothing changes. Rejected accounts are deactivated.
func (r *ApprovalRepo) Resolve(ctx context.Context, req model.ApprovalRequest, decision model.ApprovalStatus, reviewer, reason string, at time.Time) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE approval_requests SET status=?, reviewed_by=?, reviewed_at=?, rejection_reason=?
			WHERE id=? AND status='pending'`,
			decision, reviewer, at, nullString(reason), req.ID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrAlreadyProcessed
		}
		active := decision == model.StatusApproved
		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET approval_status=?, is_active=? WHERE id=?",
			decision, active, req.UserID); err != nil {
			return err
		}
		return nil
	})
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/gym-management/internal/model"
)

// UserRepo stores accounts in the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, seq, email, phone, full_name, password_hash, role, center, approval_status,
	is_primary_admin, is_active, push_token, address, emergency_contact, goals, medical_notes,
	membership_plan, membership_start, membership_end, next_payment_date, last_payment_reminder,
	created_at, updated_at`

func scanUser(s rowScanner) (model.User, error) {
	var (
		u                                        model.User
		center, pushToken, address, goals, notes sql.NullString
		plan                                     sql.NullString
		emergency                                []byte
		start, end, nextPay, lastReminder        sql.NullTime
	)
	err := s.Scan(&u.ID, &u.Seq, &u.Email, &u.Phone, &u.FullName, &u.PasswordHash, &u.Role, &center,
		&u.ApprovalStatus, &u.IsPrimaryAdmin, &u.IsActive, &pushToken, &address, &emergency, &goals, &notes,
		&plan, &start, &end, &nextPay, &lastReminder, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Center = model.Center(center.String)
	u.PushToken = pushToken.String
	u.Address = address.String
	u.Goals = goals.String
	u.MedicalNotes = notes.String
	if len(emergency) > 0 && string(emergency) != "null" {
		var ec model.EmergencyContact
		if err := json.Unmarshal(emergency, &ec); err == nil {
			u.EmergencyContact = &ec
		}
	}
	u.Membership = model.Membership{
		Plan:                plan.String,
		StartDate:           timePtr(start),
		EndDate:             timePtr(end),
		NextPaymentDate:     timePtr(nextPay),
		LastPaymentReminder: timePtr(lastReminder),
	}
	return u, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func jsonOrNull(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}

// userDuplicateErr maps a unique violation on users to a sentinel.
func userDuplicateErr(err error) error {
	key, ok := duplicateKey(err)
	if !ok {
		return err
	}
	switch key {
	case "uq_users_phone":
		return ErrPhoneExists
	case "uq_users_primary":
		return ErrPrimaryAdminExists
	}
	return ErrEmailExists
}

func (r *UserRepo) insertTx(ctx context.Context, tx *sql.Tx, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	emergency, err := jsonOrNull(u.EmergencyContact)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, email, phone, full_name, password_hash, role, center, approval_status,
			is_primary_admin, is_active, address, emergency_contact, goals, medical_notes,
			membership_plan, membership_start, membership_end, next_payment_date, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		u.ID, u.Email, u.Phone, u.FullName, u.PasswordHash, u.Role, nullString(string(u.Center)), u.ApprovalStatus,
		u.IsPrimaryAdmin, u.IsActive, nullString(u.Address), emergency, nullString(u.Goals), nullString(u.MedicalNotes),
		nullString(u.Membership.Plan), nullTime(u.Membership.StartDate), nullTime(u.Membership.EndDate),
		nullTime(u.Membership.NextPaymentDate), now, now)
	if err != nil {
		return userDuplicateErr(err)
	}
	if seq, err := res.LastInsertId(); err == nil {
		u.Seq = seq
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// Create inserts an account. When approval is non-nil the approval request is
// written in the same transaction.
func (r *UserRepo) Create(ctx context.Context, u *model.User, approval *model.ApprovalRequest) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if err := r.insertTx(ctx, tx, u); err != nil {
			return err
		}
		if approval == nil {
			return nil
		}
		approval.UserID = u.ID
		return insertApprovalTx(ctx, tx, approval)
	})
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	return u, notFound(err)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	return u, notFound(err)
}

// GetByPhone fetches a user by normalized phone (+91XXXXXXXXXX).
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE phone=? LIMIT 1", phone))
	return u, notFound(err)
}

// GetPrimaryAdmin returns the primary admin, if one exists.
func (r *UserRepo) GetPrimaryAdmin(ctx context.Context) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE is_primary_admin=1 LIMIT 1"))
	return u, notFound(err)
}

// UserQuery filters List. Zero values do not filter.
type UserQuery struct {
	Role         model.Role
	Center       model.Center
	Search       string
	Active       *bool
	ApprovedOnly bool
	Limit        int
	Offset       int
}

func (q UserQuery) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.Role != "" {
		conds = append(conds, "role=?")
		args = append(args, q.Role)
	}
	if q.Center != "" {
		conds = append(conds, "center=?")
		args = append(args, q.Center)
	}
	if q.Active != nil {
		conds = append(conds, "is_active=?")
		args = append(args, *q.Active)
	}
	if q.ApprovedOnly {
		conds = append(conds, "approval_status='approved'")
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + s + "%"
		conds = append(conds, "(full_name LIKE ? OR email LIKE ? OR phone LIKE ?)")
		args = append(args, like, like, like)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns users matching q ordered by name.
func (r *UserRepo) List(ctx context.Context, q UserQuery) ([]model.User, error) {
	where, args := q.where()
	query := "SELECT " + userColumns + " FROM users" + where + " ORDER BY full_name, seq"
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.Offset)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Count returns the number of users matching q (Limit/Offset ignored).
func (r *UserRepo) Count(ctx context.Context, q UserQuery) (int, error) {
	where, args := q.where()
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&n)
	return n, err
}

// CountByCenter groups active approved users of a role by center.
func (r *UserRepo) CountByCenter(ctx context.Context, role model.Role) (map[model.Center]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT center, COUNT(*) FROM users WHERE role=? AND is_active=1 AND approval_status='approved' AND center IS NOT NULL GROUP BY center",
		role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[model.Center]int{}
	for rows.Next() {
		var (
			c model.Center
			n int
		)
		if err := rows.Scan(&c, &n); err != nil {
			return nil, err
		}
		out[c] = n
	}
	return out, rows.Err()
}

// Update writes the editable profile and membership columns of u. Center and
// the active flag have their own setters and are never rewritten here, so a
// profile edit cannot undo a concurrent move or deactivation.
func (r *UserRepo) Update(ctx context.Context, u model.User) error {
	emergency, err := jsonOrNull(u.EmergencyContact)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET full_name=?, phone=?, address=?, emergency_contact=?, goals=?,
			medical_notes=?, membership_plan=?, membership_start=?, membership_end=?, next_payment_date=?
		WHERE id=?`,
		u.FullName, u.Phone, nullString(u.Address), emergency,
		nullString(u.Goals), nullString(u.MedicalNotes), nullString(u.Membership.Plan),
		nullTime(u.Membership.StartDate), nullTime(u.Membership.EndDate), nullTime(u.Membership.NextPaymentDate), u.ID)
	if err != nil {
		return userDuplicateErr(err)
	}
	return requireRow(res)
}

// SetPushToken stores the device push token for a user.
func (r *UserRepo) SetPushToken(ctx context.Context, id, token string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET push_token=? WHERE id=?", nullString(token), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetActive flips the soft-delete flag.
func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetCenter moves a trainer or member to another center.
func (r *UserRepo) SetCenter(ctx context.Context, id string, center model.Center) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET center=? WHERE id=? AND role<>'admin'", center, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DuePaymentReminders lists active members whose next payment falls on or
// before until and who have not been reminded on day.
func (r *UserRepo) DuePaymentReminders(ctx context.Context, until, day time.Time) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+` FROM users
		WHERE role='member' AND is_active=1 AND approval_status='approved'
			AND next_payment_date IS NOT NULL AND next_payment_date <= ?
			AND (last_payment_reminder IS NULL OR last_payment_reminder < ?)`,
		until.Format("2006-01-02"), day.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// MarkPaymentReminded records that a reminder was sent on day. It reports
// false when another worker already marked the same day.
func (r *UserRepo) MarkPaymentReminded(ctx context.Context, id string, day time.Time) (bool, error) {
	d := day.Format("2006-01-02")
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_payment_reminder=? WHERE id=? AND (last_payment_reminder IS NULL OR last_payment_reminder < ?)",
		d, id, d)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

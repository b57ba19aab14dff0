package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/gym-management/internal/model"
)

// AttendanceRepo stores check-in/check-out records.
type AttendanceRepo struct{ DB *sql.DB }

func NewAttendanceRepo(db *sql.DB) *AttendanceRepo { return &AttendanceRepo{DB: db} }

const attendanceColumns = `a.id, a.user_id, a.center, a.check_in_time, a.check_out_time, a.method, a.marked_by,
	u.full_name, u.role`

func scanAttendance(s rowScanner) (model.AttendanceRecord, error) {
	var (
		rec              model.AttendanceRecord
		center, markedBy sql.NullString
		out              sql.NullTime
	)
	if err := s.Scan(&rec.ID, &rec.UserID, &center, &rec.CheckInTime, &out, &rec.Method, &markedBy,
		&rec.UserName, &rec.UserRole); err != nil {
		return model.AttendanceRecord{}, err
	}
	rec.Center = model.Center(center.String)
	rec.MarkedBy = markedBy.String
	rec.CheckOutTime = timePtr(out)
	return rec, nil
}

// CheckIn opens a record for rec.UserID. The user row is locked so two
// concurrent check-ins for the same user serialize; the second one sees the
// open record and fails with ErrAlreadyCheckedIn.
func (r *AttendanceRepo) CheckIn(ctx context.Context, rec *model.AttendanceRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var locked string
		if err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id=? FOR UPDATE", rec.UserID).Scan(&locked); err != nil {
			return notFound(err)
		}
		var open int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM attendance WHERE user_id=? AND check_out_time IS NULL", rec.UserID).Scan(&open); err != nil {
			return err
		}
		if open > 0 {
			return ErrAlreadyCheckedIn
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO attendance (id, user_id, center, check_in_time, method, marked_by) VALUES (?,?,?,?,?,?)",
			rec.ID, rec.UserID, nullString(string(rec.Center)), rec.CheckInTime, rec.Method, nullString(rec.MarkedBy))
		if _, dup := duplicateKey(err); dup {
			return ErrAlreadyCheckedIn
		}
		return err
	})
}

// CheckOut closes the user's open record and returns it.
func (r *AttendanceRepo) CheckOut(ctx context.Context, userID string, at time.Time) (model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var err error
		rec, err = scanAttendance(tx.QueryRowContext(ctx,
			"SELECT "+attendanceColumns+` FROM attendance a JOIN users u ON u.id=a.user_id
			WHERE a.user_id=? AND a.check_out_time IS NULL LIMIT 1 FOR UPDATE`, userID))
		if err == sql.ErrNoRows {
			return ErrNotCheckedIn
		}
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"UPDATE attendance SET check_out_time=? WHERE id=? AND check_out_time IS NULL", at, rec.ID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotCheckedIn
		}
		rec.CheckOutTime = &at
		return nil
	})
	return rec, err
}

// OpenRecord returns the user's open record or ErrNotFound.
func (r *AttendanceRepo) OpenRecord(ctx context.Context, userID string) (model.AttendanceRecord, error) {
	rec, err := scanAttendance(r.DB.QueryRowContext(ctx,
		"SELECT "+attendanceColumns+` FROM attendance a JOIN users u ON u.id=a.user_id
		WHERE a.user_id=? AND a.check_out_time IS NULL LIMIT 1`, userID))
	return rec, notFound(err)
}

// AttendanceQuery filters List and Count. From is inclusive, To exclusive.
type AttendanceQuery struct {
	UserID   string
	Center   model.Center
	From, To time.Time
	OpenOnly bool
	Limit    int
}

func (q AttendanceQuery) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.UserID != "" {
		conds = append(conds, "a.user_id=?")
		args = append(args, q.UserID)
	}
	if q.Center != "" {
		conds = append(conds, "a.center=?")
		args = append(args, q.Center)
	}
	if !q.From.IsZero() {
		conds = append(conds, "a.check_in_time>=?")
		args = append(args, q.From)
	}
	if !q.To.IsZero() {
		conds = append(conds, "a.check_in_time<?")
		args = append(args, q.To)
	}
	if q.OpenOnly {
		conds = append(conds, "a.check_out_time IS NULL")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns records newest first.
func (r *AttendanceRepo) List(ctx context.Context, q AttendanceQuery) ([]model.AttendanceRecord, error) {
	where, args := q.where()
	query := "SELECT " + attendanceColumns + " FROM attendance a JOIN users u ON u.id=a.user_id" + where +
		" ORDER BY a.check_in_time DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count counts records matching q.
func (r *AttendanceRepo) Count(ctx context.Context, q AttendanceQuery) (int, error) {
	where, args := q.where()
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM attendance a"+where, args...).Scan(&n)
	return n, err
}

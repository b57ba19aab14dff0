package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/iliyamo/gym-management/internal/model"
)

// NotificationRepo stores per-user notifications.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Create inserts a notification.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	var data any
	if len(n.Data) > 0 {
		b, err := json.Marshal(n.Data)
		if err != nil {
			return err
		}
		data = b
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO notifications (id, user_id, title, body, type, data, is_read, created_at) VALUES (?,?,?,?,?,?,0,?)",
		n.ID, n.UserID, n.Title, n.Body, n.Type, data, n.CreatedAt)
	return err
}

// List returns the user's notifications, newest first.
func (r *NotificationRepo) List(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, title, body, type, data, is_read, created_at FROM notifications
		WHERE user_id=? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Notification
	for rows.Next() {
		var (
			n    model.Notification
			data []byte
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Type, &data, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		if len(data) > 0 {
			_ = json.Unmarshal(data, &n.Data)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead marks one of the user's notifications read.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE notifications SET is_read=1 WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// MarkAllRead marks every notification of the user read.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "UPDATE notifications SET is_read=1 WHERE user_id=? AND is_read=0", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UnreadCount counts the user's unread notifications.
func (r *NotificationRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM notifications WHERE user_id=? AND is_read=0", userID).Scan(&n)
	return n, err
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/gym-management/internal/model"
)

// AnnouncementRepo stores announcements. Deletion is soft.
type AnnouncementRepo struct{ DB *sql.DB }

func NewAnnouncementRepo(db *sql.DB) *AnnouncementRepo { return &AnnouncementRepo{DB: db} }

const announcementColumns = `a.id, a.author_id, u.full_name, a.title, a.content, a.target, a.target_center,
	a.target_users, a.is_active, a.created_at, a.updated_at`

func scanAnnouncement(s rowScanner) (model.Announcement, error) {
	var (
		a      model.Announcement
		center sql.NullString
		users  []byte
	)
	if err := s.Scan(&a.ID, &a.AuthorID, &a.AuthorName, &a.Title, &a.Content, &a.Target, &center, &users,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return model.Announcement{}, err
	}
	a.TargetCenter = model.Center(center.String)
	if len(users) > 0 {
		if err := json.Unmarshal(users, &a.TargetUsers); err != nil {
			return model.Announcement{}, err
		}
	}
	return a, nil
}

// Create inserts an announcement.
func (r *AnnouncementRepo) Create(ctx context.Context, a *model.Announcement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	users, err := jsonOrNull(a.TargetUsers)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt, a.IsActive = now, now, true
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO announcements (id, author_id, title, content, target, target_center, target_users, is_active, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,1,?,?)`,
		a.ID, a.AuthorID, a.Title, a.Content, a.Target, nullString(string(a.TargetCenter)), users, now, now)
	return err
}

// Get returns one announcement, active or not.
func (r *AnnouncementRepo) Get(ctx context.Context, id string) (model.Announcement, error) {
	a, err := scanAnnouncement(r.DB.QueryRowContext(ctx,
		"SELECT "+announcementColumns+" FROM announcements a JOIN users u ON u.id=a.author_id WHERE a.id=? LIMIT 1", id))
	return a, notFound(err)
}

// ListActive returns active announcements, newest first.
func (r *AnnouncementRepo) ListActive(ctx context.Context, limit int) ([]model.Announcement, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+announcementColumns+` FROM announcements a JOIN users u ON u.id=a.author_id
		WHERE a.is_active=1 ORDER BY a.created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update rewrites title, content and targeting of an active announcement.
func (r *AnnouncementRepo) Update(ctx context.Context, a *model.Announcement) error {
	users, err := jsonOrNull(a.TargetUsers)
	if err != nil {
		return err
	}
	a.UpdatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`UPDATE announcements SET title=?, content=?, target=?, target_center=?, target_users=?, updated_at=?
		WHERE id=? AND is_active=1`,
		a.Title, a.Content, a.Target, nullString(string(a.TargetCenter)), users, a.UpdatedAt, a.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Deactivate soft-deletes an announcement.
func (r *AnnouncementRepo) Deactivate(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE announcements SET is_active=0, updated_at=? WHERE id=? AND is_active=1", time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

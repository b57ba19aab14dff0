package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/gym-management/internal/model"
)

// MessageRepo stores direct messages.
type MessageRepo struct{ DB *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{DB: db} }

const messageColumns = "id, sender_id, receiver_id, content, message_type, is_read, created_at"

func scanMessage(s rowScanner) (model.Message, error) {
	var m model.Message
	err := s.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.MessageType, &m.IsRead, &m.CreatedAt)
	return m, err
}

func collectMessages(rows *sql.Rows) ([]model.Message, error) {
	defer rows.Close()
	var out []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Create inserts a message.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO messages ("+messageColumns+") VALUES (?,?,?,?,?,?,?)",
		m.ID, m.SenderID, m.ReceiverID, m.Content, m.MessageType, m.IsRead, m.CreatedAt)
	return err
}

// Conversation returns the messages exchanged between a and b, oldest first.
func (r *MessageRepo) Conversation(ctx context.Context, a, b string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT * FROM (
			SELECT `+messageColumns+` FROM messages
			WHERE (sender_id=? AND receiver_id=?) OR (sender_id=? AND receiver_id=?)
			ORDER BY created_at DESC LIMIT ?
		) recent ORDER BY created_at`,
		a, b, b, a, limit)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// MarkRead marks every message from sender to receiver as read.
func (r *MessageRepo) MarkRead(ctx context.Context, receiver, sender string) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE messages SET is_read=1 WHERE receiver_id=? AND sender_id=? AND is_read=0", receiver, sender)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ConversationSummary is the latest message and unread count per peer.
type ConversationSummary struct {
	PeerID      string
	LastMessage model.Message
	Unread      int
}

// Conversations summarises the user's conversations, most recent first.
func (r *MessageRepo) Conversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT m.id, m.sender_id, m.receiver_id, m.content, m.message_type, m.is_read, m.created_at,
			(SELECT COUNT(*) FROM messages x WHERE x.sender_id=peer.peer_id AND x.receiver_id=? AND x.is_read=0)
		FROM (
			SELECT IF(sender_id=?, receiver_id, sender_id) AS peer_id, MAX(created_at) AS last_at
			FROM messages WHERE sender_id=? OR receiver_id=?
			GROUP BY peer_id
		) peer
		JOIN messages m ON m.created_at=peer.last_at
			AND ((m.sender_id=? AND m.receiver_id=peer.peer_id) OR (m.sender_id=peer.peer_id AND m.receiver_id=?))
		ORDER BY m.created_at DESC`,
		userID, userID, userID, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var (
		out  []ConversationSummary
		seen = map[string]bool{}
	)
	for rows.Next() {
		var s ConversationSummary
		m := &s.LastMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.MessageType, &m.IsRead, &m.CreatedAt, &s.Unread); err != nil {
			return nil, err
		}
		s.PeerID = m.ReceiverID
		if m.ReceiverID == userID {
			s.PeerID = m.SenderID
		}
		// two messages with the same millisecond timestamp: keep the first
		if seen[s.PeerID] {
			continue
		}
		seen[s.PeerID] = true
		out = append(out, s)
	}
	return out, rows.Err()
}

// UnreadCount counts unread messages addressed to userID.
func (r *MessageRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages WHERE receiver_id=? AND is_read=0", userID).Scan(&n)
	return n, err
}

// DeleteSelected removes the given messages that userID sent or received.
// Messages between other users are left untouched.
func (r *MessageRepo) DeleteSelected(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := []any{userID, userID}
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM messages WHERE (sender_id=? OR receiver_id=?) AND id IN (?"+strings.Repeat(",?", len(ids)-1)+")", args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteConversation removes every message between a and b.
func (r *MessageRepo) DeleteConversation(ctx context.Context, a, b string) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM messages WHERE (sender_id=? AND receiver_id=?) OR (sender_id=? AND receiver_id=?)", a, b, b, a)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package model

import "time"

// MessageType distinguishes plain text from attachment links.
type MessageType string

const (
    MessageText  MessageType = "text"
    MessageImage MessageType = "image"
    MessagePDF   MessageType = "pdf"
)

// Message mirrors the `messages` table.
type Message struct {
    ID          string      `json:"id"`
    SenderID    string      `json:"sender_id"`
    ReceiverID  string      `json:"receiver_id"`
    Content     string      `json:"content"`
    MessageType MessageType `json:"message_type"`
    IsRead      bool        `json:"is_read"`
    CreatedAt   time.Time   `json:"created_at"`
}

// Conversation summarises the latest exchange with another user.
type Conversation struct {
    OtherUser   Contact `json:"other_user"`
    LastMessage Message `json:"last_message"`
    UnreadCount int     `json:"unread_count"`
}

// Contact is the reduced user shape shown in chat lists.
type Contact struct {
    ID             string `json:"id"`
    FullName       string `json:"full_name"`
    Role           Role   `json:"role"`
    Center         Center `json:"center,omitempty"`
    IsPrimaryAdmin bool   `json:"is_primary_admin,omitempty"`
}

// ContactOf reduces a user to its chat-list form.
func ContactOf(u User) Contact {
    return Contact{ID: u.ID, FullName: u.FullName, Role: u.Role, Center: u.Center, IsPrimaryAdmin: u.IsPrimaryAdmin}
}

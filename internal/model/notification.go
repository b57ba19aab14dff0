package model

import "time"

// Notification types used across services.
const (
    NotifyApproval     = "approval"
    NotifyRegistration = "registration"
    NotifyMessage      = "message"
    NotifyAnnouncement = "announcement"
    NotifyOrder        = "order"
    NotifyPayment      = "payment_reminder"
    NotifyPaymentDone  = "payment"
    NotifyWorkout      = "workout"
    NotifyDiet         = "diet"
    NotifyAccount      = "account"
)

// Notification mirrors the `notifications` table.
type Notification struct {
    ID        string            `json:"id"`
    UserID    string            `json:"user_id"`
    Title     string            `json:"title"`
    Body      string            `json:"body"`
    Type      string            `json:"type"`
    Data      map[string]string `json:"data,omitempty"`
    IsRead    bool              `json:"is_read"`
    CreatedAt time.Time         `json:"created_at"`
}

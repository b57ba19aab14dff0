// Package queue carries push notification jobs over RabbitMQ. Requests enqueue
// jobs; a background consumer hands them to the push provider so a slow or
// failing provider never delays an API response.
package queue

import "time"

// PushQueueName is the durable queue push jobs are published to.
const PushQueueName = "push.notifications"

// PushJob is one device notification waiting for delivery.
type PushJob struct {
    NotificationID string            `json:"notification_id"`
    UserID         string            `json:"user_id"`
    PushToken      string            `json:"push_token"`
    Title          string            `json:"title"`
    Body           string            `json:"body"`
    Type           string            `json:"type"`
    Data           map[string]string `json:"data,omitempty"`
    CreatedAt      time.Time         `json:"created_at"`
}

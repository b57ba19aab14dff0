package model

import "time"

// ApprovalRequest is the audit record created next to every pending user.
// It is resolved exactly once; a second resolution is a conflict.
type ApprovalRequest struct {
    ID              string         `json:"id"`
    UserID          string         `json:"user_id"`
    UserRole        Role           `json:"user_role"`
    Center          Center         `json:"center,omitempty"`
    Status          ApprovalStatus `json:"status"`
    ReviewedBy      string         `json:"reviewed_by,omitempty"`
    ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
    RejectionReason string         `json:"rejection_reason,omitempty"`
    CreatedAt       time.Time      `json:"created_at"`

    // Joined from users for list responses.
    FullName string `json:"full_name,omitempty"`
    Email    string `json:"email,omitempty"`
    Phone    string `json:"phone,omitempty"`
}

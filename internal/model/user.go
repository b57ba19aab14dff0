package model

import (
    "fmt"
    "time"
)

// Role is the account type stored in users.role.
type Role string

const (
    RoleAdmin   Role = "admin"
    RoleTrainer Role = "trainer"
    RoleMember  Role = "member"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
    return r == RoleAdmin || r == RoleTrainer || r == RoleMember
}

// ApprovalStatus gates access for newly registered accounts.
type ApprovalStatus string

const (
    StatusPending  ApprovalStatus = "pending"
    StatusApproved ApprovalStatus = "approved"
    StatusRejected ApprovalStatus = "rejected"
)

// EmergencyContact is stored as JSON in users.emergency_contact.
type EmergencyContact struct {
    Name     string `json:"name"`
    Phone    string `json:"phone"`
    Relation string `json:"relation,omitempty"`
}

// Membership captures the plan a member is paying for. Payments are recorded
// by staff in the payments table; no money moves through the service.
type Membership struct {
    Plan                string     `json:"plan,omitempty"`
    StartDate           *time.Time `json:"start_date,omitempty"`
    EndDate             *time.Time `json:"end_date,omitempty"`
    NextPaymentDate     *time.Time `json:"next_payment_date,omitempty"`
    LastPaymentReminder *time.Time `json:"-"`
}

// User mirrors the `users` table. Member-only columns are empty for staff.
//
// Fields:
//  ID             – uuid primary key.
//  Seq            – auto-increment sequence, source of the member code.
//  Center         – empty for admins.
//  IsPrimaryAdmin – at most one row may carry true.
//  IsActive       – false once the account is deactivated (never hard-deleted).
type User struct {
    ID               string            `json:"id"`
    Seq              int64             `json:"-"`
    Email            string            `json:"email"`
    Phone            string            `json:"phone"`
    FullName         string            `json:"full_name"`
    PasswordHash     string            `json:"-"`
    Role             Role              `json:"role"`
    Center           Center            `json:"center,omitempty"`
    ApprovalStatus   ApprovalStatus    `json:"approval_status"`
    IsPrimaryAdmin   bool              `json:"is_primary_admin"`
    IsActive         bool              `json:"is_active"`
    PushToken        string            `json:"-"`
    Address          string            `json:"address,omitempty"`
    EmergencyContact *EmergencyContact `json:"emergency_contact,omitempty"`
    Goals            string            `json:"goals,omitempty"`
    MedicalNotes     string            `json:"medical_notes,omitempty"`
    Membership       Membership        `json:"membership"`
    CreatedAt        time.Time         `json:"created_at"`
    UpdatedAt        time.Time         `json:"updated_at"`
}

// MemberCode renders the human-facing member number (HG0001, HG0002, ...).
// Staff accounts have no code.
func (u User) MemberCode() string {
    if u.Role != RoleMember || u.Seq <= 0 {
        return ""
    }
    return fmt.Sprintf("HG%04d", u.Seq)
}

// Approved reports whether the account passed the approval gate.
func (u User) Approved() bool { return u.ApprovalStatus == StatusApproved }

// MembershipActive reports whether the membership end date is today or later.
func (u User) MembershipActive(now time.Time) bool {
    if u.Membership.EndDate == nil {
        return false
    }
    end := u.Membership.EndDate.UTC()
    y, m, d := now.UTC().Date()
    return !end.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// UserView is the JSON shape of a user returned by the API.
type UserView struct {
    User
    MemberID string `json:"member_id,omitempty"`
}

// View attaches derived fields for API responses.
func (u User) View() UserView {
    return UserView{User: u, MemberID: u.MemberCode()}
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    string     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}

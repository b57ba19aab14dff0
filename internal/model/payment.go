package model

import "time"

// PaymentStatus is the outcome of a recorded membership payment.
type PaymentStatus string

const (
    PaymentPending   PaymentStatus = "pending"
    PaymentCompleted PaymentStatus = "completed"
    PaymentFailed    PaymentStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s PaymentStatus) Valid() bool {
    switch s {
    case PaymentPending, PaymentCompleted, PaymentFailed:
        return true
    }
    return false
}

// Payment mirrors the `payments` table. Staff record payments taken at the
// front desk; no money moves through the service.
type Payment struct {
    ID              string        `json:"id"`
    MemberID        string        `json:"member_id"`
    Center          Center        `json:"center"`
    Amount          float64       `json:"amount"`
    Method          string        `json:"payment_method"`
    Description     string        `json:"description,omitempty"`
    Status          PaymentStatus `json:"status"`
    RecordedBy      string        `json:"recorded_by"`
    PaidAt          time.Time     `json:"payment_date"`
    NextPaymentDate *time.Time    `json:"next_payment_date,omitempty"`
}

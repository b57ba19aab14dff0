package model

import "time"

// CheckInMethod records how an attendance record was opened.
type CheckInMethod string

const (
    MethodQR     CheckInMethod = "qr"
    MethodManual CheckInMethod = "manual"
    MethodSelf   CheckInMethod = "self"
)

// AttendanceRecord mirrors the `attendance` table. A record with a nil
// CheckOutTime is "open"; a user has at most one open record.
type AttendanceRecord struct {
    ID           string        `json:"id"`
    UserID       string        `json:"user_id"`
    Center       Center        `json:"center,omitempty"`
    CheckInTime  time.Time     `json:"check_in_time"`
    CheckOutTime *time.Time    `json:"check_out_time,omitempty"`
    Method       CheckInMethod `json:"method"`
    MarkedBy     string        `json:"marked_by,omitempty"`

    UserName string `json:"user_name,omitempty"`
    UserRole Role   `json:"user_role,omitempty"`
}

// Open reports whether the record still waits for a check-out.
func (a AttendanceRecord) Open() bool { return a.CheckOutTime == nil }

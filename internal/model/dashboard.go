package model

// AdminDashboard aggregates gym-wide counters.
type AdminDashboard struct {
    TotalMembers     int            `json:"total_members"`
    TotalTrainers    int            `json:"total_trainers"`
    MembersByCenter  map[Center]int `json:"members_by_center"`
    TodayAttendance  int            `json:"today_attendance"`
    CurrentlyInside  int            `json:"currently_checked_in"`
    PendingApprovals int            `json:"pending_approvals"`
    PendingOrders    int            `json:"pending_orders"`
    MonthlyRevenue   float64        `json:"monthly_revenue"`
}

// TrainerDashboard aggregates counters for the trainer's center.
type TrainerDashboard struct {
    Center           Center `json:"center"`
    AssignedMembers  int    `json:"assigned_members"`
    TodayAttendance  int    `json:"today_attendance"`
    UnreadMessages   int    `json:"unread_messages"`
    PendingApprovals int    `json:"pending_approvals"`
}

// MemberDashboard summarises the caller's own state.
type MemberDashboard struct {
    MemberID            string         `json:"member_id"`
    ApprovalStatus      ApprovalStatus `json:"approval_status"`
    Membership          Membership     `json:"membership"`
    MembershipActive    bool           `json:"membership_active"`
    AttendanceThisMonth int            `json:"attendance_this_month"`
    CheckedIn           bool           `json:"checked_in"`
    ActiveWorkout       *WorkoutPlan   `json:"active_workout,omitempty"`
    UnreadMessages      int            `json:"unread_messages"`
    UnreadNotifications int            `json:"unread_notifications"`
}

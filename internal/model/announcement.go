package model

import "time"

// AnnouncementTarget selects the audience of an announcement.
type AnnouncementTarget string

const (
    TargetAll      AnnouncementTarget = "all"
    TargetMembers  AnnouncementTarget = "members"
    TargetTrainers AnnouncementTarget = "trainers"
    TargetCenter   AnnouncementTarget = "center"
    TargetSelected AnnouncementTarget = "selected"
)

// Valid reports whether t is a known target.
func (t AnnouncementTarget) Valid() bool {
    switch t {
    case TargetAll, TargetMembers, TargetTrainers, TargetCenter, TargetSelected:
        return true
    }
    return false
}

// Announcement mirrors the `announcements` table. Deletion clears IsActive.
type Announcement struct {
    ID           string             `json:"id"`
    AuthorID     string             `json:"author_id"`
    AuthorName   string             `json:"author_name,omitempty"`
    Title        string             `json:"title"`
    Content      string             `json:"content"`
    Target       AnnouncementTarget `json:"target"`
    TargetCenter Center             `json:"target_center,omitempty"`
    TargetUsers  []string           `json:"target_users,omitempty"`
    IsActive     bool               `json:"is_active"`
    CreatedAt    time.Time          `json:"created_at"`
    UpdatedAt    time.Time          `json:"updated_at"`
}

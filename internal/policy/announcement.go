package policy

import "github.com/iliyamo/gym-management/internal/model"

// AnnouncementVisible reports whether the announcement is addressed to the
// actor. It is used both to filter reads and to pick live recipients.
func AnnouncementVisible(a Actor, ann model.Announcement) bool {
	if !ann.IsActive || Gate(a) != nil {
		return false
	}
	if a.IsAdmin() {
		return true
	}
	for _, id := range ann.TargetUsers {
		if id == a.ID {
			return true
		}
	}
	switch ann.Target {
	case model.TargetAll:
		return true
	case model.TargetMembers:
		return a.IsMember()
	case model.TargetTrainers:
		return a.IsTrainer()
	case model.TargetCenter:
		return a.Center != "" && a.Center == ann.TargetCenter
	}
	return false
}

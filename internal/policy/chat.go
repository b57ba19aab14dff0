package policy

import (
	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/model"
)

// CanChat decides whether two users may exchange direct messages. A pair may
// chat when either side reaches the other, so the answer never depends on who
// writes first.
func CanChat(from, to model.User) error {
	if from.ID == to.ID {
		return apperr.Validation("cannot message yourself")
	}
	for _, u := range []model.User{from, to} {
		if !u.IsActive || !u.Approved() {
			return apperr.Forbidden("user is not available for chat")
		}
	}
	if reaches(from, to) || reaches(to, from) {
		return nil
	}
	return apperr.Forbidden("cannot message users of another center")
}

// reaches is the one-way chat rule. Admins without a center and the primary
// admin are global; an admin bound to a center stays in it but can always
// reach the primary admin. Trainers reach any admin. Everyone else stays in
// their own center.
func reaches(a, b model.User) bool {
	sameCenter := a.Center != "" && a.Center == b.Center
	switch a.Role {
	case model.RoleAdmin:
		return a.IsPrimaryAdmin || a.Center == "" || b.IsPrimaryAdmin || sameCenter
	case model.RoleTrainer:
		return b.Role == model.RoleAdmin || sameCenter
	}
	return sameCenter
}

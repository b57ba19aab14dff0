package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/model"
)

func actor(id string, role model.Role, center model.Center) Actor {
	return Actor{ID: id, Role: role, Center: center, Status: model.StatusApproved, Active: true}
}

var (
	primary      = Actor{ID: "p", Role: model.RoleAdmin, Status: model.StatusApproved, Active: true, Primary: true}
	admin        = actor("a", model.RoleAdmin, "")
	trainerCk    = actor("tc", model.RoleTrainer, model.CenterChakdah)
	trainerRn    = actor("tr", model.RoleTrainer, model.CenterRanaghat)
	memberCk     = actor("mc", model.RoleMember, model.CenterChakdah)
	chakdahAsha  = Target{OwnerID: "asha", Center: model.CenterChakdah}
	ranaghatRavi = Target{OwnerID: "ravi", Center: model.CenterRanaghat}
)

func TestPendingActorsAreDeniedEverywhere(t *testing.T) {
	resources := []Resource{MemberAccount, MemberApproval, StaffApproval, Attendance, Plan,
		Announcement, Merchandise, Order, Notification, AdminDashboard, MemberDashboard}
	actions := []Action{Read, Create, Update, Delete, Resolve, Complete, Cancel}

	for _, role := range []model.Role{model.RoleAdmin, model.RoleTrainer, model.RoleMember} {
		for _, status := range []model.ApprovalStatus{model.StatusPending, model.StatusRejected} {
			a := Actor{ID: "x", Role: role, Center: model.CenterChakdah, Status: status, Active: true, Primary: role == model.RoleAdmin}
			for _, res := range resources {
				for _, act := range actions {
					assert.Equal(t, ScopeNone, ScopeFor(a, res, act))
					err := Authorize(a, res, act, Target{OwnerID: "x", Center: model.CenterChakdah})
					assert.ErrorIs(t, err, apperr.ErrForbidden, "%s/%s %s %s", role, status, res, act)
				}
			}
		}
	}
}

func TestDeactivatedActorIsForbidden(t *testing.T) {
	a := memberCk
	a.Active = false
	err := Authorize(a, Attendance, Create, Target{OwnerID: a.ID, Center: a.Center})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestTrainerCenterScope(t *testing.T) {
	require.NoError(t, Authorize(trainerCk, MemberAccount, Read, chakdahAsha))
	require.NoError(t, Authorize(trainerCk, MemberApproval, Resolve, chakdahAsha))

	// other center: existence hidden
	assert.ErrorIs(t, Authorize(trainerCk, MemberAccount, Read, ranaghatRavi), apperr.ErrNotFound)
	assert.ErrorIs(t, Authorize(trainerRn, MemberApproval, Resolve, chakdahAsha), apperr.ErrNotFound)

	// readable but not permitted
	assert.ErrorIs(t, Authorize(trainerCk, MemberAccount, Delete, chakdahAsha), apperr.ErrForbidden)

	f, err := ListFilter(trainerCk, MemberAccount)
	require.NoError(t, err)
	assert.Equal(t, Filter{Center: model.CenterChakdah}, f)
	assert.True(t, f.Matches(chakdahAsha))
	assert.False(t, f.Matches(ranaghatRavi))
}

func TestStaffApprovalsArePrimaryOnly(t *testing.T) {
	staff := Target{OwnerID: "new-trainer", Center: model.CenterMadanpur}
	require.NoError(t, Authorize(primary, StaffApproval, Resolve, staff))
	assert.ErrorIs(t, Authorize(admin, StaffApproval, Resolve, staff), apperr.ErrNotFound)
	assert.ErrorIs(t, Authorize(trainerCk, StaffApproval, Resolve, staff), apperr.ErrNotFound)

	_, err := ListFilter(admin, StaffApproval)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestPrimaryAdminMostPermissiveRuleWins(t *testing.T) {
	// the admin row grants Read only on trainers; the primary row adds writes
	assert.Equal(t, ScopeAll, ScopeFor(primary, TrainerAccount, Read))
	assert.Equal(t, ScopeAll, ScopeFor(primary, TrainerAccount, Update))
	assert.Equal(t, ScopeNone, ScopeFor(admin, TrainerAccount, Update))
	assert.ErrorIs(t, Authorize(admin, TrainerAccount, Update, Target{OwnerID: "t"}), apperr.ErrForbidden)
	assert.Equal(t, ScopeAll, ScopeFor(primary, MemberAccount, Delete))
}

func TestMemberSelfScope(t *testing.T) {
	self := Target{OwnerID: memberCk.ID, Center: memberCk.Center}
	require.NoError(t, Authorize(memberCk, Attendance, Create, self))
	require.NoError(t, Authorize(memberCk, Plan, Complete, self))
	assert.ErrorIs(t, Authorize(memberCk, Plan, Update, self), apperr.ErrForbidden)
	assert.ErrorIs(t, Authorize(memberCk, Attendance, Read, chakdahAsha), apperr.ErrNotFound)
	assert.ErrorIs(t, Authorize(memberCk, MemberApproval, Resolve, self), apperr.ErrNotFound)
	assert.ErrorIs(t, Require(memberCk, Announcement, Create), apperr.ErrForbidden)
	assert.ErrorIs(t, Authorize(memberCk, Order, Create, Target{OwnerID: "someone-else"}), apperr.ErrForbidden)
}

func TestAdminsCannotOrder(t *testing.T) {
	assert.ErrorIs(t, Authorize(admin, Order, Create, Target{OwnerID: admin.ID}), apperr.ErrForbidden)
	require.NoError(t, Authorize(trainerCk, Order, Create, Target{OwnerID: trainerCk.ID}))
}

func TestCanChat(t *testing.T) {
	mk := func(id string, role model.Role, center model.Center) model.User {
		return model.User{ID: id, Role: role, Center: center, ApprovalStatus: model.StatusApproved, IsActive: true}
	}
	m1 := mk("m1", model.RoleMember, model.CenterChakdah)
	m2 := mk("m2", model.RoleMember, model.CenterChakdah)
	m3 := mk("m3", model.RoleMember, model.CenterRanaghat)
	tr := mk("t1", model.RoleTrainer, model.CenterChakdah)
	ad := mk("a1", model.RoleAdmin, "")

	assert.NoError(t, CanChat(m1, m2))
	assert.NoError(t, CanChat(m1, tr))
	assert.NoError(t, CanChat(tr, ad))
	assert.NoError(t, CanChat(ad, m3))
	assert.NoError(t, CanChat(m3, ad))
	assert.ErrorIs(t, CanChat(m1, m3), apperr.ErrForbidden)
	assert.ErrorIs(t, CanChat(tr, m3), apperr.ErrForbidden)
	assert.ErrorIs(t, CanChat(m1, m1), apperr.ErrValidation)

	pending := m2
	pending.ApprovalStatus = model.StatusPending
	assert.ErrorIs(t, CanChat(m1, pending), apperr.ErrForbidden)
}

func TestCanChatWithCenterBoundAdmin(t *testing.T) {
	mk := func(id string, role model.Role, center model.Center) model.User {
		return model.User{ID: id, Role: role, Center: center, ApprovalStatus: model.StatusApproved, IsActive: true}
	}
	m1 := mk("m1", model.RoleMember, model.CenterChakdah)
	m3 := mk("m3", model.RoleMember, model.CenterRanaghat)
	tr := mk("t1", model.RoleTrainer, model.CenterChakdah)
	ca := mk("a2", model.RoleAdmin, model.CenterRanaghat)
	pa := mk("a0", model.RoleAdmin, "")
	pa.IsPrimaryAdmin = true

	assert.NoError(t, CanChat(ca, m3))
	assert.NoError(t, CanChat(m3, ca))
	assert.ErrorIs(t, CanChat(ca, m1), apperr.ErrForbidden)
	assert.ErrorIs(t, CanChat(m1, ca), apperr.ErrForbidden)

	// primary admin is reachable from a center-bound admin in both directions
	assert.NoError(t, CanChat(ca, pa))
	assert.NoError(t, CanChat(pa, ca))
	assert.NoError(t, CanChat(pa, m1))

	assert.NoError(t, CanChat(tr, ca))
	assert.NoError(t, CanChat(ca, tr))
}

func TestAnnouncementVisible(t *testing.T) {
	ann := func(target model.AnnouncementTarget) model.Announcement {
		return model.Announcement{ID: "an", Target: target, IsActive: true}
	}
	assert.True(t, AnnouncementVisible(memberCk, ann(model.TargetMembers)))
	assert.False(t, AnnouncementVisible(trainerCk, ann(model.TargetMembers)))
	assert.True(t, AnnouncementVisible(trainerCk, ann(model.TargetTrainers)))
	assert.True(t, AnnouncementVisible(admin, ann(model.TargetTrainers)))

	byCenter := ann(model.TargetCenter)
	byCenter.TargetCenter = model.CenterChakdah
	assert.True(t, AnnouncementVisible(memberCk, byCenter))
	assert.False(t, AnnouncementVisible(trainerRn, byCenter))

	selected := ann(model.TargetSelected)
	selected.TargetUsers = []string{trainerRn.ID}
	assert.True(t, AnnouncementVisible(trainerRn, selected))
	assert.False(t, AnnouncementVisible(memberCk, selected))

	deleted := ann(model.TargetAll)
	deleted.IsActive = false
	assert.False(t, AnnouncementVisible(admin, deleted))
}

func TestEditableMemberFields(t *testing.T) {
	m := EditableMemberFields(memberCk)
	assert.True(t, m[FieldPhone])
	assert.False(t, m[FieldMedicalNotes])
	assert.False(t, m[FieldIsActive])

	tr := EditableMemberFields(trainerCk)
	assert.True(t, tr[FieldMedicalNotes])
	assert.False(t, tr[FieldFullName])

	ad := EditableMemberFields(admin)
	assert.True(t, ad[FieldIsActive])
}

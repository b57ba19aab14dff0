package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
	"github.com/iliyamo/gym-management/internal/realtime"
)

func TestPendingUserOnlyReadsOwnProfile(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()
	g.seedPrimary("root")

	sess, err := g.auth.Register(ctx, RegisterInput{
		Email: "pending@hercules.test", Phone: "9876500001", Password: "secret1",
		FullName: "Pending Person", Role: model.RoleMember, Center: model.CenterRanaghat,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, sess.User.ApprovalStatus)
	assert.Equal(t, "+919876500001", sess.User.Phone)
	assert.NotEmpty(t, sess.AccessToken)

	actor := g.actor(sess.User.User)
	me, err := g.auth.Me(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, "Pending Person", me.FullName)

	_, err = g.members.Get(ctx, actor, actor.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = g.attendance.CheckIn(ctx, actor, "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = g.announcements.List(ctx, actor)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = g.merch.ListItems(ctx, actor, "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = g.dashboard.Member(ctx, actor)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = g.messages.Send(ctx, actor, SendInput{ReceiverID: "x", Content: "hi"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.NoError(t, g.auth.SetPushToken(ctx, actor, "ExponentPushToken[abc]"))
}

func TestFirstAdminBecomesPrimary(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()

	first, err := g.auth.Register(ctx, RegisterInput{Email: "a1@hercules.test", Phone: "9800000001", Password: "secret1", FullName: "First", Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, first.User.IsPrimaryAdmin)
	assert.Equal(t, model.StatusApproved, first.User.ApprovalStatus)

	second, err := g.auth.Register(ctx, RegisterInput{Email: "a2@hercules.test", Phone: "9800000002", Password: "secret1", FullName: "Second", Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.False(t, second.User.IsPrimaryAdmin)
	assert.Equal(t, model.StatusPending, second.User.ApprovalStatus)

	// only the primary admin reviews staff requests
	pending, err := g.approvals.Pending(ctx, g.actor(first.User.User))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.User.ID, pending[0].UserID)
	assert.Equal(t, 1, g.notificationsOf(first.User.ID, model.NotifyRegistration))
}

func TestLoginByPhoneAndRefreshRotation(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()
	_, err := g.auth.Register(ctx, RegisterInput{Email: "Boss@Hercules.test", Phone: "919800000009", Password: "secret1", FullName: "Boss", Role: model.RoleAdmin})
	require.NoError(t, err)

	sess, err := g.auth.Login(ctx, "9800000009", "secret1")
	require.NoError(t, err)
	_, err = g.auth.Login(ctx, "boss@hercules.test", "wrong-password")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	next, err := g.auth.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, sess.RefreshToken, next.RefreshToken)
	_, err = g.auth.Refresh(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestTrainerSeesOnlyOwnCenter(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()
	ranaghatTrainer := g.seed("ravi", model.RoleTrainer, model.CenterRanaghat)
	local := g.seed("mina", model.RoleMember, model.CenterRanaghat)
	remote := g.seed("kabir", model.RoleMember, model.CenterChakdah)
	actor := g.actor(ranaghatTrainer)

	list, err := g.members.List(ctx, actor, MemberQuery{Center: model.CenterChakdah})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, local.ID, list[0].ID)

	_, err = g.members.Get(ctx, actor, remote.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	goals := "deadlift 200"
	_, err = g.members.Update(ctx, actor, remote.ID, MemberPatch{Goals: &goals})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = g.attendance.CheckIn(ctx, actor, remote.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	updated, err := g.members.Update(ctx, actor, local.ID, MemberPatch{Goals: &goals})
	require.NoError(t, err)
	assert.Equal(t, goals, updated.Goals)

	name := "Renamed"
	_, err = g.members.Update(ctx, actor, local.ID, MemberPatch{FullName: &name})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = g.members.ChangeCenter(ctx, actor, local.ID, model.CenterMadanpur)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestApproveTwiceConflictsAndKeepsFirstOutcome(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()
	admin := g.seedPrimary("root")
	sess, err := g.auth.Register(ctx, RegisterInput{Email: "m@hercules.test", Phone: "9700000001", Password: "secret1", FullName: "M", Role: model.RoleMember, Center: model.CenterMadanpur})
	require.NoError(t, err)
	req := g.pendingRequestOf(sess.User.ID)

	_, err = g.approvals.Approve(ctx, g.actor(admin), req.ID)
	require.NoError(t, err)
	_, err = g.approvals.Approve(ctx, g.actor(admin), req.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "already processed", apperr.MessageOf(err))
	_, err = g.approvals.Reject(ctx, g.actor(admin), req.ID, "late")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	u, err := g.users.GetByID(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, u.ApprovalStatus)
	assert.True(t, u.IsActive)
	assert.Equal(t, 1, g.notificationsOf(u.ID, model.NotifyApproval))

	history, err := g.approvals.History(ctx, g.actor(admin), 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.StatusApproved, history[0].Status)
}

func TestRejectDeactivatesAccount(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()
	admin := g.seedPrimary("root")
	sess, err := g.auth.Register(ctx, RegisterInput{Email: "r@hercules.test", Phone: "9700000002", Password: "secret1", FullName: "R", Role: model.RoleTrainer, Center: model.CenterChakdah})
	require.NoError(t, err)

	_, err = g.approvals.Reject(ctx, g.actor(admin), g.pendingRequestOf(sess.User.ID).ID, "no vacancy")
	require.NoError(t, err)
	_, err = g.auth.Login(ctx, "r@hercules.test", "secret1")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = g.auth.Refresh(ctx, sess.RefreshToken)
	assert.Error(t, err)
}

// Asha registers for Chakdah. A Ranaghat trainer can neither see nor approve
// her; the Chakdah trainer approves and she can then check in.
func TestAshaRegistrationJourney(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()
	g.seedPrimary("root")
	ranaghat := g.seed("ravi", model.RoleTrainer, model.CenterRanaghat)
	chakdah := g.seed("chitra", model.RoleTrainer, model.CenterChakdah)

	sess, err := g.auth.Register(ctx, RegisterInput{Email: "asha@hercules.test", Phone: "9123456780", Password: "asha123", FullName: "Asha", Role: model.RoleMember, Center: model.CenterChakdah})
	require.NoError(t, err)
	asha := sess.User.User
	assert.Equal(t, 1, g.notificationsOf(chakdah.ID, model.NotifyRegistration))
	assert.Zero(t, g.notificationsOf(ranaghat.ID, model.NotifyRegistration))

	_, err = g.attendance.CheckIn(ctx, g.actor(asha), "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	pending, err := g.approvals.Pending(ctx, g.actor(ranaghat))
	require.NoError(t, err)
	assert.Empty(t, pending)
	req := g.pendingRequestOf(asha.ID)
	_, err = g.approvals.Approve(ctx, g.actor(ranaghat), req.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	pending, err = g.approvals.Pending(ctx, g.actor(chakdah))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	_, err = g.approvals.Approve(ctx, g.actor(chakdah), req.ID)
	require.NoError(t, err)

	rec, err := g.attendance.CheckIn(ctx, g.actor(asha), "")
	require.NoError(t, err)
	assert.Equal(t, model.MethodSelf, rec.Method)
	assert.Equal(t, model.CenterChakdah, rec.Center)
}

func TestCheckInAlternation(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()
	trainer := g.seed("tara", model.RoleTrainer, model.CenterMadanpur)
	member := g.seed("mohan", model.RoleMember, model.CenterMadanpur)
	me := g.actor(member)

	_, err := g.attendance.CheckOut(ctx, me, "")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = g.attendance.CheckIn(ctx, me, "")
	require.NoError(t, err)
	_, err = g.attendance.CheckIn(ctx, g.actor(trainer), member.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	out, err := g.attendance.CheckOut(ctx, g.actor(trainer), member.ID)
	require.NoError(t, err)
	assert.NotNil(t, out.CheckOutTime)

	again, err := g.attendance.CheckIn(ctx, g.actor(trainer), member.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MethodManual, again.Method)
	assert.Equal(t, trainer.ID, again.MarkedBy)
	assert.NotEqual(t, out.ID, again.ID)

	history, err := g.attendance.History(ctx, me, "", g.now.AddDate(0, 0, -1), g.now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, history, 2)

	today, err := g.attendance.Today(ctx, g.actor(trainer), "")
	require.NoError(t, err)
	assert.Len(t, today, 2)
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()
	admin := g.seedPrimary("root")
	buyers := []model.User{
		g.seed("b1", model.RoleMember, model.CenterRanaghat),
		g.seed("b2", model.RoleTrainer, model.CenterChakdah),
	}
	item, err := g.merch.CreateItem(ctx, g.actor(admin), ItemInput{Name: "Hercules Tee", Price: 499, Category: "apparel", Stock: map[string]int{"M": 2}})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, short int
	)
	for _, b := range buyers {
		wg.Add(1)
		go func(actor policy.Actor) {
			defer wg.Done()
			_, err := g.merch.PlaceOrder(ctx, actor, []OrderLineInput{{ItemID: item.ID, Size: "M", Quantity: 2}})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, apperr.ErrConflict) {
				short++
			}
		}(g.actor(b))
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)

	after, err := g.merch.GetItem(ctx, g.actor(admin), item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.Stock["M"])
}

func TestOrderLifecycle(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()
	admin := g.seedPrimary("root")
	buyer := g.seed("b1", model.RoleMember, model.CenterRanaghat)
	other := g.seed("b2", model.RoleMember, model.CenterRanaghat)
	item, err := g.merch.CreateItem(ctx, g.actor(admin), ItemInput{Name: "Shaker", Price: 250, Category: "gear", Stock: map[string]int{"One": 5}})
	require.NoError(t, err)

	_, err = g.merch.PlaceOrder(ctx, g.actor(admin), []OrderLineInput{{ItemID: item.ID, Size: "One", Quantity: 1}})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	o, err := g.merch.PlaceOrder(ctx, g.actor(buyer), []OrderLineInput{
		{ItemID: item.ID, Size: "One", Quantity: 1},
		{ItemID: item.ID, Size: "One", Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.Equal(t, 750.0, o.Total)
	assert.Equal(t, 1, g.notificationsOf(admin.ID, model.NotifyOrder))

	_, err = g.merch.Cancel(ctx, g.actor(other), o.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = g.merch.UpdateStatus(ctx, g.actor(admin), o.ID, model.OrderCompleted)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	ready, err := g.merch.UpdateStatus(ctx, g.actor(admin), o.ID, model.OrderReady)
	require.NoError(t, err)
	assert.Equal(t, model.OrderReady, ready.Status)

	_, err = g.merch.Cancel(ctx, g.actor(buyer), o.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	cancelled, err := g.merch.Cancel(ctx, g.actor(admin), o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, cancelled.Status)
	after, err := g.merch.GetItem(ctx, g.actor(admin), item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, after.Stock["One"])

	mine, err := g.merch.MyOrders(ctx, g.actor(buyer))
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	_, err = g.merch.AllOrders(ctx, g.actor(buyer), "", "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestMessageRoundTrip(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()
	trainer := g.seed("tara", model.RoleTrainer, model.CenterChakdah)
	member := g.seed("mohan", model.RoleMember, model.CenterChakdah)
	g.live.connected = []policy.Actor{g.actor(member)}

	sent, err := g.messages.Send(ctx, g.actor(trainer), SendInput{ReceiverID: member.ID, Content: "Leg day tomorrow"})
	require.NoError(t, err)
	assert.False(t, sent.IsRead)
	assert.Equal(t, 1, g.live.eventsFor(member.ID, realtime.EventMessage))
	assert.Equal(t, 1, g.notificationsOf(member.ID, model.NotifyMessage))

	n, err := g.messages.UnreadCount(ctx, g.actor(member))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// the sender's own view does not mark anything read
	senderView, err := g.messages.Conversation(ctx, g.actor(trainer), member.ID)
	require.NoError(t, err)
	require.Len(t, senderView, 1)
	assert.False(t, senderView[0].IsRead)

	got, err := g.messages.Conversation(ctx, g.actor(member), trainer.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sent.ID, got[0].ID)
	assert.True(t, got[0].IsRead)

	n, err = g.messages.UnreadCount(ctx, g.actor(member))
	require.NoError(t, err)
	assert.Zero(t, n)

	convs, err := g.messages.Conversations(ctx, g.actor(trainer))
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, member.ID, convs[0].OtherUser.ID)
}

func TestChatIsLimitedToCenterExceptAdmins(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()
	admin := g.seedPrimary("root")
	member := g.seed("mohan", model.RoleMember, model.CenterChakdah)
	foreign := g.seed("farah", model.RoleTrainer, model.CenterRanaghat)
	mate := g.seed("meera", model.RoleMember, model.CenterChakdah)

	_, err := g.messages.Send(ctx, g.actor(member), SendInput{ReceiverID: foreign.ID, Content: "hi"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = g.messages.Send(ctx, g.actor(foreign), SendInput{ReceiverID: admin.ID, Content: "hi"})
	assert.NoError(t, err)
	_, err = g.messages.Send(ctx, g.actor(member), SendInput{ReceiverID: member.ID, Content: "hi"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	contacts, err := g.messages.Contacts(ctx, g.actor(member))
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, c := range contacts {
		ids[c.ID] = true
	}
	assert.Equal(t, map[string]bool{admin.ID: true, mate.ID: true}, ids)
}

func TestAnnouncementToMembersReachesMembersOnly(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()
	admin := g.seedPrimary("root")
	member := g.seed("mohan", model.RoleMember, model.CenterChakdah)
	trainer := g.seed("tara", model.RoleTrainer, model.CenterChakdah)
	g.live.connected = []policy.Actor{g.actor(member), g.actor(trainer)}

	a, err := g.announcements.Create(ctx, g.actor(admin), AnnouncementInput{Title: "Holiday", Content: "Closed on Friday", Target: model.TargetMembers})
	require.NoError(t, err)
	assert.Equal(t, 1, g.live.eventsFor(member.ID, realtime.EventAnnouncement))
	assert.Zero(t, g.live.eventsFor(trainer.ID, realtime.EventAnnouncement))
	assert.Equal(t, 1, g.notificationsOf(member.ID, model.NotifyAnnouncement))
	assert.Zero(t, g.notificationsOf(trainer.ID, model.NotifyAnnouncement))

	seen, err := g.announcements.List(ctx, g.actor(trainer))
	require.NoError(t, err)
	assert.Empty(t, seen)

	_, err = g.announcements.Create(ctx, g.actor(trainer), AnnouncementInput{Title: "x", Content: "y"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, g.announcements.Delete(ctx, g.actor(admin), a.ID))
	assert.Equal(t, 1, g.live.eventsFor(member.ID, realtime.EventAnnouncementDeleted))
	assert.Zero(t, g.live.eventsFor(trainer.ID, realtime.EventAnnouncementDeleted))
	err = g.announcements.Delete(ctx, g.actor(admin), a.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAnnouncementTargetValidation(t *testing.T) {
	g := newGym(t)
	admin := g.actor(g.seedPrimary("root"))
	_, err := g.announcements.Create(context.Background(), admin, AnnouncementInput{Title: "t", Content: "c", Target: model.TargetCenter})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = g.announcements.Create(context.Background(), admin, AnnouncementInput{Title: "t", Content: "c", Target: model.TargetSelected})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestWorkoutPlanFlow(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()
	trainer := g.seed("tara", model.RoleTrainer, model.CenterChakdah)
	member := g.seed("mohan", model.RoleMember, model.CenterChakdah)
	outsider := g.seed("omar", model.RoleTrainer, model.CenterMadanpur)

	first, err := g.plans.CreateWorkout(ctx, g.actor(trainer), WorkoutInput{MemberID: member.ID, Title: "Base", Exercises: []model.Exercise{{Name: "Squat", Sets: 5}}})
	require.NoError(t, err)
	second, err := g.plans.CreateWorkout(ctx, g.actor(trainer), WorkoutInput{MemberID: member.ID, Title: "Peak", Exercises: []model.Exercise{{Name: "Bench", Sets: 3}, {Name: "Row", Sets: 3}}})
	require.NoError(t, err)
	assert.Equal(t, 2, g.notificationsOf(member.ID, model.NotifyWorkout))

	old, err := fakePlans{g.w}.GetWorkout(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, old.IsActive)

	_, err = g.plans.CreateWorkout(ctx, g.actor(member), WorkoutInput{MemberID: member.ID, Title: "Mine"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = g.plans.ListWorkouts(ctx, g.actor(outsider), member.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	done, err := g.plans.CompleteExercise(ctx, g.actor(member), second.ID, 1)
	require.NoError(t, err)
	assert.True(t, done.Exercises[1].Completed)
	_, err = g.plans.CompleteExercise(ctx, g.actor(member), second.ID, 7)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = g.plans.CompleteExercise(ctx, g.actor(member), second.ID, -1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	dash, err := g.dashboard.Member(ctx, g.actor(member))
	require.NoError(t, err)
	require.NotNil(t, dash.ActiveWorkout)
	assert.Equal(t, second.ID, dash.ActiveWorkout.ID)
}

func TestDashboards(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()
	admin := g.seedPrimary("root")
	trainer := g.seed("tara", model.RoleTrainer, model.CenterChakdah)
	m1 := g.seed("m1", model.RoleMember, model.CenterChakdah)
	g.seed("m2", model.RoleMember, model.CenterRanaghat)
	_, err := g.auth.Register(ctx, RegisterInput{Email: "p@hercules.test", Phone: "9600000001", Password: "secret1", FullName: "P", Role: model.RoleMember, Center: model.CenterChakdah})
	require.NoError(t, err)
	_, err = g.attendance.CheckIn(ctx, g.actor(m1), "")
	require.NoError(t, err)

	ad, err := g.dashboard.Admin(ctx, g.actor(admin))
	require.NoError(t, err)
	assert.Equal(t, 2, ad.TotalMembers)
	assert.Equal(t, 1, ad.TotalTrainers)
	assert.Equal(t, 1, ad.TodayAttendance)
	assert.Equal(t, 1, ad.CurrentlyInside)
	assert.Equal(t, 1, ad.PendingApprovals)
	assert.Equal(t, 0, ad.MembersByCenter[model.CenterMadanpur])

	td, err := g.dashboard.Trainer(ctx, g.actor(trainer))
	require.NoError(t, err)
	assert.Equal(t, 1, td.AssignedMembers)
	assert.Equal(t, 1, td.TodayAttendance)
	assert.Equal(t, 1, td.PendingApprovals)

	_, err = g.dashboard.Admin(ctx, g.actor(trainer))
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	md, err := g.dashboard.Member(ctx, g.actor(m1))
	require.NoError(t, err)
	assert.True(t, md.CheckedIn)
	assert.Equal(t, 1, md.AttendanceThisMonth)
	assert.Equal(t, m1.MemberCode(), md.MemberID)
}

func TestNotificationsInbox(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()
	admin := g.seedPrimary("root")
	member := g.seed("m1", model.RoleMember, model.CenterChakdah)
	_, err := g.members.ChangeCenter(ctx, g.actor(admin), member.ID, model.CenterMadanpur)
	require.NoError(t, err)

	list, err := g.notifications.List(ctx, g.actor(member), 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.NotifyAccount, list[0].Type)

	err = g.notifications.MarkRead(ctx, g.actor(admin), list[0].ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, g.notifications.MarkRead(ctx, g.actor(member), list[0].ID))
	n, err := g.notifications.UnreadCount(ctx, g.actor(member))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPaymentRemindersOncePerDay(t *testing.T) {
	g := newGym(t)
	ctx := context.Background()
	member := g.seed("m1", model.RoleMember, model.CenterChakdah)
	due := g.now.AddDate(0, 0, 2)
	require.NoError(t, g.users.mutate(member.ID, func(u *model.User) { u.Membership.NextPaymentDate = &due }))
	later := g.seed("m2", model.RoleMember, model.CenterChakdah)
	far := g.now.AddDate(0, 0, 10)
	require.NoError(t, g.users.mutate(later.ID, func(u *model.User) { u.Membership.NextPaymentDate = &far }))

	job := &ReminderJob{Users: g.users, Notifier: g.auth.Notifier, LeadDays: 3, Clock: func() time.Time { return g.now }}
	n, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = job.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, g.notificationsOf(member.ID, model.NotifyPayment))

	g.now = g.now.AddDate(0, 0, 1)
	n, err = job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReminderText(t *testing.T) {
	today := dayStart(time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC))
	title, _ := reminderText(today.AddDate(0, 0, -1), today)
	assert.Equal(t, "Payment overdue", title)
	title, _ = reminderText(today, today)
	assert.Equal(t, "Payment due today", title)
	_, body := reminderText(today.AddDate(0, 0, 3), today)
	assert.Equal(t, "Your membership payment is due in 3 days", body)
}

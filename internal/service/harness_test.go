package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
)

// gym wires every service to one in-memory world.
type gym struct {
	t     *testing.T
	w     *world
	live  *fakeLive
	now   time.Time
	users fakeUsers

	notifier      *Notifier
	auth          *AuthService
	approvals     *ApprovalService
	members       *MemberService
	trainers      *TrainerService
	attendance    *AttendanceService
	messages      *MessageService
	announcements *AnnouncementService
	merch         *MerchandiseService
	plans         *PlanService
	notifications *NotificationService
	dashboard     *DashboardService
	payments      *PaymentService
}

func newGym(t *testing.T) *gym {
	t.Helper()
	w := newWorld()
	g := &gym{t: t, w: w, live: &fakeLive{}, now: time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)}
	clock := Clock(func() time.Time { return g.now })
	g.users = fakeUsers{w}
	notifier := &Notifier{Store: fakeNotifications{w}, Users: g.users, Live: g.live, Clock: clock}
	g.notifier = notifier
	t.Cleanup(notifier.Wait)

	g.auth = &AuthService{
		Users: g.users, Tokens: fakeTokens{w}, Notifier: notifier, Clock: clock,
		Cfg: AuthConfig{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4},
	}
	g.approvals = &ApprovalService{Approvals: fakeApprovals{w}, Tokens: fakeTokens{w}, Notifier: notifier, Live: g.live, Clock: clock}
	g.members = &MemberService{
		Users: g.users, Tokens: fakeTokens{w}, Plans: fakePlans{w}, Notifier: notifier, Live: g.live, BcryptCost: 4, Clock: clock,
	}
	g.trainers = &TrainerService{Users: g.users, Tokens: fakeTokens{w}, Notifier: notifier, Live: g.live, BcryptCost: 4}
	g.attendance = &AttendanceService{Users: g.users, Attendance: fakeAttendance{w}, Clock: clock}
	g.messages = &MessageService{Users: g.users, Messages: fakeMessages{w}, Notifier: notifier, Live: g.live, Clock: clock}
	g.announcements = &AnnouncementService{Users: g.users, Announcements: fakeAnnouncements{w}, Notifier: notifier, Live: g.live}
	g.merch = &MerchandiseService{Items: fakeItems{w}, Orders: fakeOrders{w}, Users: g.users, Notifier: notifier}
	g.plans = &PlanService{Users: g.users, Plans: fakePlans{w}, Notifier: notifier, Clock: clock}
	g.notifications = &NotificationService{Store: fakeNotifications{w}}
	g.dashboard = &DashboardService{
		Users: g.users, Approvals: fakeApprovals{w}, Attendance: fakeAttendance{w}, Orders: fakeOrders{w},
		Messages: fakeMessages{w}, Notifications: fakeNotifications{w}, Plans: fakePlans{w},
		Payments: fakePayments{w}, Clock: clock,
	}
	g.payments = &PaymentService{Users: g.users, Payments: fakePayments{w}, Notifier: notifier, Clock: clock}
	return g
}

var phoneSeq = 9000000000

// seed stores an approved, active user directly.
func (g *gym) seed(name string, role model.Role, center model.Center) model.User {
	g.t.Helper()
	phoneSeq++
	u := model.User{
		Email:          fmt.Sprintf("%s@hercules.test", name),
		Phone:          fmt.Sprintf("+91%d", phoneSeq),
		FullName:       name,
		Role:           role,
		Center:         center,
		ApprovalStatus: model.StatusApproved,
		IsActive:       true,
	}
	require.NoError(g.t, g.users.Create(context.Background(), &u, nil))
	return u
}

func (g *gym) seedPrimary(name string) model.User {
	g.t.Helper()
	phoneSeq++
	u := model.User{
		Email: name + "@hercules.test", Phone: fmt.Sprintf("+91%d", phoneSeq), FullName: name,
		Role: model.RoleAdmin, ApprovalStatus: model.StatusApproved, IsActive: true, IsPrimaryAdmin: true,
	}
	require.NoError(g.t, g.users.Create(context.Background(), &u, nil))
	return u
}

// actor reloads the user so approval changes are picked up.
func (g *gym) actor(u model.User) policy.Actor {
	g.t.Helper()
	cur, err := g.users.GetByID(context.Background(), u.ID)
	require.NoError(g.t, err)
	return policy.ActorOf(cur)
}

func (g *gym) pendingRequestOf(userID string) model.ApprovalRequest {
	g.t.Helper()
	g.w.mu.Lock()
	defer g.w.mu.Unlock()
	for _, r := range g.w.approvals {
		if r.UserID == userID {
			return r
		}
	}
	g.t.Fatalf("no approval request for %s", userID)
	return model.ApprovalRequest{}
}

// notificationsOf counts userID's stored notifications of kind once every
// background fan-out has finished.
func (g *gym) notificationsOf(userID, kind string) int {
	g.notifier.Wait()
	g.w.mu.Lock()
	defer g.w.mu.Unlock()
	n := 0
	for _, x := range g.w.notifications {
		if x.UserID == userID && x.Type == kind {
			n++
		}
	}
	return n
}

// inbox returns userID's stored notifications of kind, oldest first.
func (g *gym) inbox(userID, kind string) []model.Notification {
	g.notifier.Wait()
	g.w.mu.Lock()
	defer g.w.mu.Unlock()
	var out []model.Notification
	for _, x := range g.w.notifications {
		if x.UserID == userID && x.Type == kind {
			out = append(out, x)
		}
	}
	return out
}

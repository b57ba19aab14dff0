package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
	"github.com/iliyamo/gym-management/internal/repository"
)

// DashboardService aggregates counters for the three dashboards. Each
// counter is an independent query; they run concurrently.
type DashboardService struct {
	Users         UserStore
	Approvals     ApprovalStore
	Attendance    AttendanceStore
	Orders        OrderStore
	Messages      MessageStore
	Notifications NotificationStore
	Plans         PlanStore
	Payments      PaymentStore
	Clock         Clock
}

func (s *DashboardService) Admin(ctx context.Context, actor policy.Actor) (model.AdminDashboard, error) {
	if err := policy.Require(actor, policy.AdminDashboard, policy.Read); err != nil {
		return model.AdminDashboard{}, err
	}
	now := s.Clock.now()
	active := true
	var d model.AdminDashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TotalMembers, err = s.Users.Count(gctx, repository.UserQuery{Role: model.RoleMember, Active: &active, ApprovedOnly: true})
		return err
	})
	g.Go(func() (err error) {
		d.TotalTrainers, err = s.Users.Count(gctx, repository.UserQuery{Role: model.RoleTrainer, Active: &active, ApprovedOnly: true})
		return err
	})
	g.Go(func() (err error) {
		d.MembersByCenter, err = s.Users.CountByCenter(gctx, model.RoleMember)
		return err
	})
	g.Go(func() (err error) {
		d.TodayAttendance, err = s.Attendance.Count(gctx, repository.AttendanceQuery{From: dayStart(now)})
		return err
	})
	g.Go(func() (err error) {
		d.CurrentlyInside, err = s.Attendance.Count(gctx, repository.AttendanceQuery{OpenOnly: true})
		return err
	})
	g.Go(func() (err error) {
		roles := []model.Role{model.RoleMember}
		if actor.Primary {
			roles = append(roles, model.RoleTrainer, model.RoleAdmin)
		}
		d.PendingApprovals, err = s.Approvals.CountPending(gctx, roles, "")
		return err
	})
	g.Go(func() (err error) {
		d.PendingOrders, err = s.Orders.CountByStatus(gctx, model.OrderPending)
		return err
	})
	g.Go(func() (err error) {
		d.MonthlyRevenue, err = s.Payments.Revenue(gctx, monthStart(now), "")
		return err
	})
	if err := g.Wait(); err != nil {
		return model.AdminDashboard{}, storeErr(err, "dashboard")
	}
	if d.MembersByCenter == nil {
		d.MembersByCenter = map[model.Center]int{}
	}
	for _, c := range model.Centers {
		if _, ok := d.MembersByCenter[c]; !ok {
			d.MembersByCenter[c] = 0
		}
	}
	return d, nil
}

func (s *DashboardService) Trainer(ctx context.Context, actor policy.Actor) (model.TrainerDashboard, error) {
	if err := policy.Require(actor, policy.TrainerDashboard, policy.Read); err != nil {
		return model.TrainerDashboard{}, err
	}
	now := s.Clock.now()
	active := true
	d := model.TrainerDashboard{Center: actor.Center}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.AssignedMembers, err = s.Users.Count(gctx, repository.UserQuery{Role: model.RoleMember, Center: actor.Center, Active: &active, ApprovedOnly: true})
		return err
	})
	g.Go(func() (err error) {
		d.TodayAttendance, err = s.Attendance.Count(gctx, repository.AttendanceQuery{Center: actor.Center, From: dayStart(now)})
		return err
	})
	g.Go(func() (err error) {
		d.UnreadMessages, err = s.Messages.UnreadCount(gctx, actor.ID)
		return err
	})
	g.Go(func() (err error) {
		d.PendingApprovals, err = s.Approvals.CountPending(gctx, []model.Role{model.RoleMember}, actor.Center)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.TrainerDashboard{}, storeErr(err, "dashboard")
	}
	return d, nil
}

func (s *DashboardService) Member(ctx context.Context, actor policy.Actor) (model.MemberDashboard, error) {
	if err := policy.Require(actor, policy.MemberDashboard, policy.Read); err != nil {
		return model.MemberDashboard{}, err
	}
	now := s.Clock.now()

	var (
		d    model.MemberDashboard
		user model.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		user, err = s.Users.GetByID(gctx, actor.ID)
		return err
	})
	g.Go(func() (err error) {
		d.AttendanceThisMonth, err = s.Attendance.Count(gctx, repository.AttendanceQuery{UserID: actor.ID, From: monthStart(now)})
		return err
	})
	g.Go(func() error {
		_, err := s.Attendance.OpenRecord(gctx, actor.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		d.CheckedIn = err == nil
		return err
	})
	g.Go(func() error {
		p, err := s.Plans.ActiveWorkout(gctx, actor.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err == nil {
			d.ActiveWorkout = &p
		}
		return err
	})
	g.Go(func() (err error) {
		d.UnreadMessages, err = s.Messages.UnreadCount(gctx, actor.ID)
		return err
	})
	g.Go(func() (err error) {
		d.UnreadNotifications, err = s.Notifications.UnreadCount(gctx, actor.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.MemberDashboard{}, storeErr(err, "dashboard")
	}
	d.MemberID = user.MemberCode()
	d.ApprovalStatus = user.ApprovalStatus
	d.Membership = user.Membership
	d.MembershipActive = user.MembershipActive(now)
	return d, nil
}

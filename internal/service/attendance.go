package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/metrics"
	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
	"github.com/iliyamo/gym-management/internal/repository"
)

// AttendanceService runs the check-in state machine. A user is either checked
// in (one open record) or not; each transition fails with a conflict when its
// precondition does not hold.
type AttendanceService struct {
	Users      UserStore
	Attendance AttendanceStore
	QR         QRCodes
	Clock      Clock
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthStart(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// attendee loads the subject of an attendance action. Users outside the
// caller's read scope are reported as not found before act is checked.
func (s *AttendanceService) attendee(ctx context.Context, actor policy.Actor, userID string, act policy.Action) (model.User, error) {
	if err := policy.Gate(actor); err != nil {
		return model.User{}, err
	}
	if userID == "" {
		userID = actor.ID
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, storeErr(err, "user")
	}
	target := policy.Target{OwnerID: u.ID, Center: u.Center}
	if err := policy.Authorize(actor, policy.Attendance, policy.Read, target); err != nil {
		return model.User{}, err
	}
	if act != policy.Read {
		if err := policy.Authorize(actor, policy.Attendance, act, target); err != nil {
			return model.User{}, err
		}
	}
	return u, nil
}

// CheckIn opens an attendance record for userID (the caller when empty).
// Staff checking in someone else produce a manual record marked by them.
func (s *AttendanceService) CheckIn(ctx context.Context, actor policy.Actor, userID string) (model.AttendanceRecord, error) {
	u, err := s.attendee(ctx, actor, userID, policy.Create)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	if u.ID != actor.ID {
		return s.open(ctx, u, model.MethodManual, actor.ID)
	}
	return s.open(ctx, u, model.MethodSelf, "")
}

func (s *AttendanceService) open(ctx context.Context, u model.User, method model.CheckInMethod, markedBy string) (model.AttendanceRecord, error) {
	if !u.IsActive || !u.Approved() {
		return model.AttendanceRecord{}, apperr.Forbidden("account is not approved for check-in")
	}
	rec := model.AttendanceRecord{
		UserID:      u.ID,
		Center:      u.Center,
		CheckInTime: s.Clock.now(),
		Method:      method,
		MarkedBy:    markedBy,
		UserName:    u.FullName,
		UserRole:    u.Role,
	}
	if err := s.Attendance.CheckIn(ctx, &rec); err != nil {
		return model.AttendanceRecord{}, storeErr(err, "user")
	}
	metrics.CheckInsTotal.WithLabelValues(string(method)).Inc()
	return rec, nil
}

// CheckOut closes userID's open record.
func (s *AttendanceService) CheckOut(ctx context.Context, actor policy.Actor, userID string) (model.AttendanceRecord, error) {
	u, err := s.attendee(ctx, actor, userID, policy.Update)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	rec, err := s.Attendance.CheckOut(ctx, u.ID, s.Clock.now())
	if err != nil {
		return model.AttendanceRecord{}, storeErr(err, "attendance record")
	}
	return rec, nil
}

// Status reports whether userID is checked in, with the open record if so.
func (s *AttendanceService) Status(ctx context.Context, actor policy.Actor, userID string) (*model.AttendanceRecord, error) {
	u, err := s.attendee(ctx, actor, userID, policy.Read)
	if err != nil {
		return nil, err
	}
	rec, err := s.Attendance.OpenRecord(ctx, u.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "attendance record")
	}
	return &rec, nil
}

// Today lists today's records in the actor's scope. Admins may narrow the
// list to one center.
func (s *AttendanceService) Today(ctx context.Context, actor policy.Actor, center model.Center) ([]model.AttendanceRecord, error) {
	f, err := policy.ListFilter(actor, policy.Attendance)
	if err != nil {
		return nil, err
	}
	now := s.Clock.now()
	q := repository.AttendanceQuery{From: dayStart(now), To: now.Add(time.Minute), Center: center}
	switch {
	case f.OwnerID != "":
		q.UserID, q.Center = f.OwnerID, ""
	case !f.All:
		q.Center = f.Center
	}
	out, err := s.Attendance.List(ctx, q)
	if err != nil {
		return nil, storeErr(err, "attendance record")
	}
	if out == nil {
		out = []model.AttendanceRecord{}
	}
	return out, nil
}

// History lists userID's records between from and to (zero means open).
func (s *AttendanceService) History(ctx context.Context, actor policy.Actor, userID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	u, err := s.attendee(ctx, actor, userID, policy.Read)
	if err != nil {
		return nil, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, apperr.Validation("end_date is before start_date")
	}
	out, err := s.Attendance.List(ctx, repository.AttendanceQuery{UserID: u.ID, From: from, To: to, Limit: 1000})
	if err != nil {
		return nil, storeErr(err, "attendance record")
	}
	if out == nil {
		out = []model.AttendanceRecord{}
	}
	return out, nil
}

// GenerateQR issues a new daily code, invalidating the previous one.
func (s *AttendanceService) GenerateQR(ctx context.Context, actor policy.Actor) (repository.QRCode, error) {
	if err := policy.Require(actor, policy.AttendanceQR, policy.Create); err != nil {
		return repository.QRCode{}, err
	}
	qr, err := s.QR.Generate(ctx, s.Clock.now())
	return qr, storeErr(err, "qr code")
}

// CurrentQR returns today's code, creating it on first use.
func (s *AttendanceService) CurrentQR(ctx context.Context, actor policy.Actor) (repository.QRCode, error) {
	if err := policy.Require(actor, policy.AttendanceQR, policy.Read); err != nil {
		return repository.QRCode{}, err
	}
	qr, err := s.QR.Current(ctx, s.Clock.now())
	return qr, storeErr(err, "qr code")
}

// QRCheckIn checks the caller in after validating the scanned code.
func (s *AttendanceService) QRCheckIn(ctx context.Context, actor policy.Actor, code string) (model.AttendanceRecord, error) {
	u, err := s.attendee(ctx, actor, actor.ID, policy.Create)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	if code == "" {
		return model.AttendanceRecord{}, apperr.Validation("code is required")
	}
	ok, err := s.QR.Validate(ctx, code, s.Clock.now())
	if err != nil {
		return model.AttendanceRecord{}, storeErr(err, "qr code")
	}
	if !ok {
		return model.AttendanceRecord{}, apperr.Validation("invalid or expired QR code")
	}
	return s.open(ctx, u, model.MethodQR, "")
}

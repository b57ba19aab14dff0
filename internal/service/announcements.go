package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
	"github.com/iliyamo/gym-management/internal/realtime"
	"github.com/iliyamo/gym-management/internal/repository"
)

// AnnouncementService publishes announcements to a targeted audience.
type AnnouncementService struct {
	Users         UserStore
	Announcements AnnouncementStore
	Notifier      *Notifier
	Live          LiveChannel
}

// AnnouncementInput is the writable part of an announcement.
type AnnouncementInput struct {
	Title        string
	Content      string
	Target       model.AnnouncementTarget
	TargetCenter model.Center
	TargetUsers  []string
}

func (in AnnouncementInput) apply(a *model.Announcement) error {
	a.Title = strings.TrimSpace(in.Title)
	a.Content = strings.TrimSpace(in.Content)
	a.Target = in.Target
	if a.Target == "" {
		a.Target = model.TargetAll
	}
	a.TargetCenter, a.TargetUsers = "", nil
	switch {
	case a.Title == "":
		return apperr.Validation("title is required")
	case a.Content == "":
		return apperr.Validation("content is required")
	case !a.Target.Valid():
		return apperr.Validation("target must be one of all, members, trainers, center, selected")
	}
	switch a.Target {
	case model.TargetCenter:
		if !in.TargetCenter.Valid() {
			return apperr.Validation("target_center must be a valid center")
		}
		a.TargetCenter = in.TargetCenter
	case model.TargetSelected:
		if len(in.TargetUsers) == 0 {
			return apperr.Validation("target_users is required for selected announcements")
		}
		a.TargetUsers = dedupe(in.TargetUsers)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// List returns the active announcements addressed to the caller.
func (s *AnnouncementService) List(ctx context.Context, actor policy.Actor) ([]model.Announcement, error) {
	if err := policy.Gate(actor); err != nil {
		return nil, err
	}
	all, err := s.Announcements.ListActive(ctx, 100)
	if err != nil {
		return nil, storeErr(err, "announcement")
	}
	out := []model.Announcement{}
	for _, a := range all {
		if policy.AnnouncementVisible(actor, a) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Create publishes a new announcement.
func (s *AnnouncementService) Create(ctx context.Context, actor policy.Actor, in AnnouncementInput) (model.Announcement, error) {
	if err := policy.Require(actor, policy.Announcement, policy.Create); err != nil {
		return model.Announcement{}, err
	}
	a := model.Announcement{AuthorID: actor.ID}
	if err := in.apply(&a); err != nil {
		return model.Announcement{}, err
	}
	if err := s.Announcements.Create(ctx, &a); err != nil {
		return model.Announcement{}, storeErr(err, "announcement")
	}
	if author, err := s.Users.GetByID(ctx, actor.ID); err == nil {
		a.AuthorName = author.FullName
	}
	s.broadcast(realtime.EventAnnouncement, a, a)
	s.notifyAudience(ctx, a, "New announcement: "+a.Title)
	return a, nil
}

// Update rewrites an announcement. Clients that could see either the old or
// the new version receive an update event.
func (s *AnnouncementService) Update(ctx context.Context, actor policy.Actor, id string, in AnnouncementInput) (model.Announcement, error) {
	if err := policy.Require(actor, policy.Announcement, policy.Update); err != nil {
		return model.Announcement{}, err
	}
	old, err := s.active(ctx, id)
	if err != nil {
		return model.Announcement{}, err
	}
	a := old
	if err := in.apply(&a); err != nil {
		return model.Announcement{}, err
	}
	if err := s.Announcements.Update(ctx, &a); err != nil {
		return model.Announcement{}, storeErr(err, "announcement")
	}
	if s.Live != nil {
		s.Live.Broadcast(realtime.Event{Name: realtime.EventAnnouncementUpdated, Data: a}, func(p policy.Actor) bool {
			return policy.AnnouncementVisible(p, old) || policy.AnnouncementVisible(p, a)
		})
	}
	return a, nil
}

// Delete deactivates an announcement.
func (s *AnnouncementService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.Require(actor, policy.Announcement, policy.Delete); err != nil {
		return err
	}
	a, err := s.active(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Announcements.Deactivate(ctx, id); err != nil {
		return storeErr(err, "announcement")
	}
	s.broadcast(realtime.EventAnnouncementDeleted, map[string]string{"id": a.ID}, a)
	return nil
}

func (s *AnnouncementService) active(ctx context.Context, id string) (model.Announcement, error) {
	a, err := s.Announcements.Get(ctx, id)
	if err != nil {
		return model.Announcement{}, storeErr(err, "announcement")
	}
	if !a.IsActive {
		return model.Announcement{}, apperr.NotFound("announcement not found")
	}
	return a, nil
}

// broadcast sends ev to every connected user the announcement is addressed to.
func (s *AnnouncementService) broadcast(name string, data any, a model.Announcement) {
	if s.Live == nil {
		return
	}
	s.Live.Broadcast(realtime.Event{Name: name, Data: data}, func(p policy.Actor) bool {
		return policy.AnnouncementVisible(p, a)
	})
}

// notifyAudience stores a notification for every approved, active recipient
// except the author. Admins see every announcement but are only notified when
// selected by name.
func (s *AnnouncementService) notifyAudience(ctx context.Context, a model.Announcement, title string) {
	if s.Notifier == nil {
		return
	}
	active := true
	q := repository.UserQuery{Active: &active, ApprovedOnly: true}
	switch a.Target {
	case model.TargetMembers:
		q.Role = model.RoleMember
	case model.TargetTrainers:
		q.Role = model.RoleTrainer
	case model.TargetCenter:
		q.Center = a.TargetCenter
	}
	users, err := s.Users.List(ctx, q)
	if err != nil {
		s.Notifier.log().Warn("list announcement audience", zap.String("announcement_id", a.ID), zap.Error(err))
		return
	}
	selected := map[string]bool{}
	for _, id := range a.TargetUsers {
		selected[id] = true
	}
	var ids []string
	for _, u := range users {
		if u.ID == a.AuthorID || (u.Role == model.RoleAdmin && !selected[u.ID]) {
			continue
		}
		if policy.AnnouncementVisible(policy.ActorOf(u), a) {
			ids = append(ids, u.ID)
		}
	}
	s.Notifier.NotifyMany(ctx, ids, model.NotifyAnnouncement, title, excerpt(a.Content, 120), map[string]string{"announcement_id": a.ID})
}

package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
	"github.com/iliyamo/gym-management/internal/repository"
	"github.com/iliyamo/gym-management/internal/utils"
)

// TrainerService manages trainer accounts. Trainers are assigned to the
// members of their center, so moving a trainer moves the assignment too.
type TrainerService struct {
	Users      UserStore
	Tokens     TokenStore
	Notifier   *Notifier
	Live       LiveChannel
	BcryptCost int
	Log        *zap.Logger
}

// TrainerView is a trainer with the number of members at their center.
type TrainerView struct {
	model.UserView
	MemberCount int `json:"member_count"`
}

func loadTrainer(ctx context.Context, users UserStore, actor policy.Actor, id string, res policy.Resource, act policy.Action) (model.User, error) {
	if err := policy.Gate(actor); err != nil {
		return model.User{}, err
	}
	u, err := users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, storeErr(err, "trainer")
	}
	if u.Role != model.RoleTrainer {
		return model.User{}, apperr.NotFound("trainer not found")
	}
	if err := policy.Authorize(actor, res, act, policy.Target{OwnerID: u.ID, Center: u.Center}); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// List returns trainers in scope with their center's member count.
func (s *TrainerService) List(ctx context.Context, actor policy.Actor, center model.Center) ([]TrainerView, error) {
	f, err := policy.ListFilter(actor, policy.TrainerAccount)
	if err != nil {
		return nil, err
	}
	var trainers []model.User
	if f.OwnerID != "" {
		u, err := s.Users.GetByID(ctx, f.OwnerID)
		if err != nil {
			return nil, storeErr(err, "trainer")
		}
		trainers = []model.User{u}
	} else {
		trainers, err = s.Users.List(ctx, repository.UserQuery{Role: model.RoleTrainer, Center: center})
		if err != nil {
			return nil, storeErr(err, "trainer")
		}
	}
	counts, err := s.Users.CountByCenter(ctx, model.RoleMember)
	if err != nil {
		return nil, storeErr(err, "trainer")
	}
	out := make([]TrainerView, 0, len(trainers))
	for _, t := range trainers {
		out = append(out, TrainerView{UserView: t.View(), MemberCount: counts[t.Center]})
	}
	return out, nil
}

// CreateTrainerInput is the primary admin's trainer creation payload.
type CreateTrainerInput struct {
	Email    string
	Phone    string
	Password string
	FullName string
	Center   model.Center
}

// Create adds an approved trainer. Only the primary admin may do this.
func (s *TrainerService) Create(ctx context.Context, actor policy.Actor, in CreateTrainerInput) (TrainerView, error) {
	if err := policy.Require(actor, policy.TrainerAccount, policy.Create); err != nil {
		return TrainerView{}, err
	}
	u, err := accountFields(in.Email, in.Phone, in.Password, in.FullName, model.RoleTrainer, in.Center)
	if err != nil {
		return TrainerView{}, err
	}
	if u.PasswordHash, err = utils.HashPassword(in.Password, s.BcryptCost); err != nil {
		return TrainerView{}, err
	}
	u.ApprovalStatus = model.StatusApproved
	if err := s.Users.Create(ctx, &u, nil); err != nil {
		return TrainerView{}, storeErr(err, "trainer")
	}
	return TrainerView{UserView: u.View()}, nil
}

// TrainerPatch carries optional trainer field changes.
type TrainerPatch struct {
	FullName *string
	Phone    *string
	IsActive *bool
}

// Update edits a trainer (primary admin only).
func (s *TrainerService) Update(ctx context.Context, actor policy.Actor, id string, p TrainerPatch) (TrainerView, error) {
	u, err := loadTrainer(ctx, s.Users, actor, id, policy.TrainerAccount, policy.Update)
	if err != nil {
		return TrainerView{}, err
	}
	if p.FullName != nil {
		name := strings.TrimSpace(*p.FullName)
		if name == "" {
			return TrainerView{}, apperr.Validation("full_name cannot be empty")
		}
		u.FullName = name
	}
	if p.Phone != nil {
		phone, err := utils.NormalizePhone(*p.Phone)
		if err != nil {
			return TrainerView{}, apperr.Validation("phone must be a valid 10 digit Indian mobile number")
		}
		u.Phone = phone
	}
	if err := s.Users.Update(ctx, u); err != nil {
		return TrainerView{}, storeErr(err, "trainer")
	}
	if p.IsActive != nil && *p.IsActive != u.IsActive {
		if err := s.Users.SetActive(ctx, u.ID, *p.IsActive); err != nil {
			return TrainerView{}, storeErr(err, "trainer")
		}
		u.IsActive = *p.IsActive
		if !u.IsActive {
			signOut(ctx, s.Tokens, s.Live, s.Log, u.ID)
		}
	}
	return TrainerView{UserView: u.View()}, nil
}

// Deactivate soft-deletes a trainer (primary admin only).
func (s *TrainerService) Deactivate(ctx context.Context, actor policy.Actor, id string) error {
	u, err := loadTrainer(ctx, s.Users, actor, id, policy.TrainerAccount, policy.Delete)
	if err != nil {
		return err
	}
	if err := s.Users.SetActive(ctx, u.ID, false); err != nil {
		return storeErr(err, "trainer")
	}
	signOut(ctx, s.Tokens, s.Live, s.Log, u.ID)
	return nil
}

// ChangeCenter moves a trainer to another center (primary admin only).
func (s *TrainerService) ChangeCenter(ctx context.Context, actor policy.Actor, id string, center model.Center) (TrainerView, error) {
	u, err := loadTrainer(ctx, s.Users, actor, id, policy.TrainerAccount, policy.Read)
	if err != nil {
		return TrainerView{}, err
	}
	if err := policy.Require(actor, policy.TrainerCenter, policy.Update); err != nil {
		return TrainerView{}, err
	}
	if !center.Valid() {
		return TrainerView{}, apperr.Validation("center must be one of Ranaghat, Chakdah, Madanpur")
	}
	if err := s.Users.SetCenter(ctx, u.ID, center); err != nil {
		return TrainerView{}, storeErr(err, "trainer")
	}
	u.Center = center
	dropLive(s.Live, u.ID)
	s.Notifier.Notify(ctx, u.ID, model.NotifyAccount, "Center changed",
		"You have been moved to the "+string(center)+" center", map[string]string{"center": string(center)})
	return TrainerView{UserView: u.View()}, nil
}

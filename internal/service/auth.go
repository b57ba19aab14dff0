package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/database"
	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
	"github.com/iliyamo/gym-management/internal/repository"
	"github.com/iliyamo/gym-management/internal/utils"
)

// AuthConfig holds token and hashing settings.
type AuthConfig struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// AuthService registers accounts and issues tokens.
type AuthService struct {
	Users    UserStore
	Tokens   TokenStore
	Notifier *Notifier
	Cfg      AuthConfig
	Log      *zap.Logger
	Clock    Clock
	Retry    database.RetryPolicy
}

// RegisterInput is the self-registration payload.
type RegisterInput struct {
	Email    string
	Phone    string
	Password string
	FullName string
	Role     model.Role
	Center   model.Center
}

// Session is returned by register, login and refresh.
type Session struct {
	AccessToken      string         `json:"access_token"`
	AccessExpiresAt  string         `json:"access_expires_at"`
	RefreshToken     string         `json:"refresh_token"`
	RefreshExpiresAt string         `json:"refresh_expires_at"`
	User             model.UserView `json:"user"`
}

// accountFields validates and normalizes the fields shared by registration
// and staff-created accounts.
func accountFields(email, phone, password, name string, role model.Role, center model.Center) (model.User, error) {
	u := model.User{
		Email:    strings.ToLower(strings.TrimSpace(email)),
		FullName: strings.TrimSpace(name),
		Role:     role,
		Center:   center,
		IsActive: true,
	}
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return model.User{}, apperr.Validation("a valid email is required")
	}
	if u.FullName == "" {
		return model.User{}, apperr.Validation("full_name is required")
	}
	if !role.Valid() {
		return model.User{}, apperr.Validation("role must be admin, trainer or member")
	}
	if role == model.RoleAdmin {
		u.Center = ""
	} else if !center.Valid() {
		return model.User{}, apperr.Validation("center must be one of Ranaghat, Chakdah, Madanpur")
	}
	p, err := utils.NormalizePhone(phone)
	if err != nil {
		return model.User{}, apperr.Validation("phone must be a valid 10 digit Indian mobile number")
	}
	u.Phone = p
	if len(password) < utils.MinPasswordLength {
		return model.User{}, apperr.Validation("password must be at least 6 characters")
	}
	return u, nil
}

// Register creates a self-registered account. Trainers and members start
// pending. The first admin becomes the approved primary admin; later admins
// start pending and need the primary admin's approval.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	u, err := accountFields(in.Email, in.Phone, in.Password, in.FullName, in.Role, in.Center)
	if err != nil {
		return Session{}, err
	}
	if u.PasswordHash, err = utils.HashPassword(in.Password, s.Cfg.BcryptCost); err != nil {
		return Session{}, err
	}

	if u.Role == model.RoleAdmin {
		_, err := s.Users.GetPrimaryAdmin(ctx)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			primary := u
			primary.IsPrimaryAdmin = true
			primary.ApprovalStatus = model.StatusApproved
			err = s.Users.Create(ctx, &primary, nil)
			if err == nil {
				s.logger().Info("primary admin registered", zap.String("user_id", primary.ID))
				return s.issue(ctx, primary)
			}
			if !errors.Is(err, repository.ErrPrimaryAdminExists) {
				return Session{}, storeErr(err, "user")
			}
			// Lost the race for primary: continue as a regular pending admin.
		case err != nil:
			return Session{}, storeErr(err, "user")
		}
	}

	u.ApprovalStatus = model.StatusPending
	req := &model.ApprovalRequest{UserRole: u.Role, Center: u.Center, Status: model.StatusPending, CreatedAt: s.Clock.now()}
	if err := s.Users.Create(ctx, &u, req); err != nil {
		return Session{}, storeErr(err, "user")
	}
	s.announceRegistration(ctx, u)
	return s.issue(ctx, u)
}

// announceRegistration tells the reviewers that a request is waiting.
func (s *AuthService) announceRegistration(ctx context.Context, u model.User) {
	reviewers, err := reviewersFor(ctx, s.Users, u)
	if err != nil {
		s.logger().Warn("load approval reviewers", zap.Error(err))
		return
	}
	s.Notifier.NotifyMany(ctx, reviewers, model.NotifyRegistration, "New registration",
		u.FullName+" registered as "+string(u.Role)+" and is waiting for approval",
		map[string]string{"user_id": u.ID, "role": string(u.Role), "center": string(u.Center)})
}

// reviewersFor lists the approved users able to resolve u's request.
func reviewersFor(ctx context.Context, users UserStore, u model.User) ([]string, error) {
	active := true
	admins, err := users.List(ctx, repository.UserQuery{Role: model.RoleAdmin, Active: &active, ApprovedOnly: true})
	if err != nil {
		return nil, err
	}
	target := policy.Target{OwnerID: u.ID, Center: u.Center}
	res := approvalResource(u.Role)
	var ids []string
	for _, a := range admins {
		if policy.Authorize(policy.ActorOf(a), res, policy.Resolve, target) == nil {
			ids = append(ids, a.ID)
		}
	}
	if u.Role == model.RoleMember && u.Center != "" {
		trainers, err := users.List(ctx, repository.UserQuery{Role: model.RoleTrainer, Center: u.Center, Active: &active, ApprovedOnly: true})
		if err != nil {
			return nil, err
		}
		for _, t := range trainers {
			ids = append(ids, t.ID)
		}
	}
	return ids, nil
}

// Login authenticates by email or phone. Pending accounts may log in; the
// approval gate limits what they can reach afterwards.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return Session{}, apperr.Validation("identifier and password are required")
	}
	var u model.User
	err := database.Retry(ctx, s.retry(), func(ctx context.Context) error {
		var err error
		if utils.LooksLikePhone(identifier) {
			phone, perr := utils.NormalizePhone(identifier)
			if perr != nil {
				return repository.ErrNotFound
			}
			u, err = s.Users.GetByPhone(ctx, phone)
		} else {
			u, err = s.Users.GetByEmail(ctx, identifier)
		}
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, apperr.Unauthenticated("invalid credentials")
	}
	if err != nil {
		return Session{}, storeErr(err, "user")
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, apperr.Unauthenticated("invalid credentials")
	}
	if !u.IsActive {
		if u.ApprovalStatus == model.StatusRejected {
			return Session{}, apperr.Forbidden("account registration was rejected")
		}
		return Session{}, apperr.Forbidden("account is deactivated")
	}
	return s.issue(ctx, u)
}

// Refresh rotates a refresh token.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Session, error) {
	if raw == "" {
		return Session{}, apperr.Validation("refresh_token is required")
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.Tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, apperr.Unauthenticated("invalid refresh token")
	}
	if err != nil {
		return Session{}, storeErr(err, "refresh token")
	}
	if ok, err := s.Tokens.RevokeByHash(ctx, hash); err != nil {
		return Session{}, storeErr(err, "refresh token")
	} else if !ok {
		return Session{}, apperr.Unauthenticated("invalid refresh token")
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return Session{}, apperr.Unauthenticated("invalid refresh token")
	}
	if !u.IsActive {
		return Session{}, apperr.Forbidden("account is deactivated")
	}
	return s.issue(ctx, u)
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return apperr.Validation("refresh_token is required")
	}
	_, err := s.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
	return storeErr(err, "refresh token")
}

// Me returns the caller's own profile. It is the one call pending accounts
// may make.
func (s *AuthService) Me(ctx context.Context, actor policy.Actor) (model.UserView, error) {
	u, err := s.Users.GetByID(ctx, actor.ID)
	if err != nil {
		return model.UserView{}, storeErr(err, "user")
	}
	return u.View(), nil
}

// ProfileInput is the self-service profile patch. Nil fields are unchanged.
type ProfileInput struct {
	FullName         *string
	Phone            *string
	Address          *string
	EmergencyContact *model.EmergencyContact
	Goals            *string
}

// UpdateProfile edits the caller's own profile.
func (s *AuthService) UpdateProfile(ctx context.Context, actor policy.Actor, in ProfileInput) (model.UserView, error) {
	if err := policy.Gate(actor); err != nil {
		return model.UserView{}, err
	}
	u, err := s.Users.GetByID(ctx, actor.ID)
	if err != nil {
		return model.UserView{}, storeErr(err, "user")
	}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return model.UserView{}, apperr.Validation("full_name cannot be empty")
		}
		u.FullName = name
	}
	if in.Phone != nil {
		p, err := utils.NormalizePhone(*in.Phone)
		if err != nil {
			return model.UserView{}, apperr.Validation("phone must be a valid 10 digit Indian mobile number")
		}
		u.Phone = p
	}
	if in.Address != nil {
		u.Address = strings.TrimSpace(*in.Address)
	}
	if in.EmergencyContact != nil {
		u.EmergencyContact = in.EmergencyContact
	}
	if in.Goals != nil {
		if u.Role != model.RoleMember {
			return model.UserView{}, apperr.Validation("goals apply to members only")
		}
		u.Goals = strings.TrimSpace(*in.Goals)
	}
	if err := s.Users.Update(ctx, u); err != nil {
		return model.UserView{}, storeErr(err, "user")
	}
	return u.View(), nil
}

// SetPushToken registers the caller's device. Pending accounts may do this so
// the approval result reaches them.
func (s *AuthService) SetPushToken(ctx context.Context, actor policy.Actor, token string) error {
	token = strings.TrimSpace(token)
	if len(token) > 255 {
		return apperr.Validation("push token too long")
	}
	return storeErr(s.Users.SetPushToken(ctx, actor.ID, token), "user")
}

// BootstrapAdmin creates the primary admin from configuration when none
// exists. It is a no-op when email is empty or a primary admin is present.
func (s *AuthService) BootstrapAdmin(ctx context.Context, email, phone, password, name string) error {
	if email == "" {
		return nil
	}
	if _, err := s.Users.GetPrimaryAdmin(ctx); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	u, err := accountFields(email, phone, password, name, model.RoleAdmin, "")
	if err != nil {
		return err
	}
	if u.PasswordHash, err = utils.HashPassword(password, s.Cfg.BcryptCost); err != nil {
		return err
	}
	u.IsPrimaryAdmin = true
	u.ApprovalStatus = model.StatusApproved
	err = s.Users.Create(ctx, &u, nil)
	if errors.Is(err, repository.ErrPrimaryAdminExists) || errors.Is(err, repository.ErrEmailExists) {
		return nil
	}
	if err == nil {
		s.logger().Info("bootstrap primary admin created", zap.String("email", u.Email))
	}
	return err
}

func (s *AuthService) issue(ctx context.Context, u model.User) (Session, error) {
	at, err := utils.NewAccessToken(s.Cfg.JWTSecret, u.ID, string(u.Role), s.Cfg.AccessTTLMin)
	if err != nil {
		return Session{}, err
	}
	rt, err := utils.NewRefreshToken(s.Cfg.RefreshTTLDays)
	if err != nil {
		return Session{}, err
	}
	if err := s.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(rt.Raw), rt.Exp); err != nil {
		return Session{}, storeErr(err, "refresh token")
	}
	return Session{
		AccessToken:      at.Token,
		AccessExpiresAt:  at.Exp.Format(time.RFC3339),
		RefreshToken:     rt.Raw,
		RefreshExpiresAt: rt.Exp.Format(time.RFC3339),
		User:             u.View(),
	}, nil
}

func (s *AuthService) retry() database.RetryPolicy {
	if s.Retry.MaxAttempts == 0 {
		return database.DefaultRetryPolicy
	}
	return s.Retry
}

func (s *AuthService) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

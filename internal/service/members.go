package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
	"github.com/iliyamo/gym-management/internal/repository"
	"github.com/iliyamo/gym-management/internal/utils"
)

// MemberService manages member accounts and their body metrics.
type MemberService struct {
	Users      UserStore
	Tokens     TokenStore
	Plans      PlanStore
	Notifier   *Notifier
	Live       LiveChannel
	BcryptCost int
	Log        *zap.Logger
	Clock      Clock
}

func memberTarget(u model.User) policy.Target {
	return policy.Target{OwnerID: u.ID, Center: u.Center}
}

// loadMember fetches a member and checks act against it. Non-members are
// reported as not found.
func loadMember(ctx context.Context, users UserStore, actor policy.Actor, id string, res policy.Resource, act policy.Action) (model.User, error) {
	if err := policy.Gate(actor); err != nil {
		return model.User{}, err
	}
	u, err := users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, storeErr(err, "member")
	}
	if u.Role != model.RoleMember {
		return model.User{}, apperr.NotFound("member not found")
	}
	if err := policy.Authorize(actor, res, act, memberTarget(u)); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// MemberQuery filters List.
type MemberQuery struct {
	Center model.Center
	Search string
	Active *bool
	Limit  int
	Offset int
}

// List returns the members in the actor's scope. A trainer always sees
// their own center, whatever center was asked for.
func (s *MemberService) List(ctx context.Context, actor policy.Actor, q MemberQuery) ([]model.UserView, error) {
	f, err := policy.ListFilter(actor, policy.MemberAccount)
	if err != nil {
		return nil, err
	}
	if f.OwnerID != "" {
		u, err := s.Users.GetByID(ctx, f.OwnerID)
		if err != nil {
			return nil, storeErr(err, "member")
		}
		return []model.UserView{u.View()}, nil
	}
	uq := repository.UserQuery{Role: model.RoleMember, Center: q.Center, Search: q.Search, Active: q.Active, Limit: q.Limit, Offset: q.Offset}
	if !f.All {
		uq.Center = f.Center
	}
	users, err := s.Users.List(ctx, uq)
	if err != nil {
		return nil, storeErr(err, "member")
	}
	out := make([]model.UserView, 0, len(users))
	for _, u := range users {
		if f.Matches(memberTarget(u)) {
			out = append(out, u.View())
		}
	}
	return out, nil
}

// Get returns one member.
func (s *MemberService) Get(ctx context.Context, actor policy.Actor, id string) (model.UserView, error) {
	u, err := loadMember(ctx, s.Users, actor, id, policy.MemberAccount, policy.Read)
	if err != nil {
		return model.UserView{}, err
	}
	return u.View(), nil
}

// CreateMemberInput is the staff-side member creation payload.
type CreateMemberInput struct {
	Email            string
	Phone            string
	Password         string
	FullName         string
	Center           model.Center
	Address          string
	EmergencyContact *model.EmergencyContact
	Goals            string
	MedicalNotes     string
	Membership       model.Membership
}

// Create adds a member on behalf of staff. Accounts created by staff are
// approved immediately.
func (s *MemberService) Create(ctx context.Context, actor policy.Actor, in CreateMemberInput) (model.UserView, error) {
	if in.Center == "" && actor.IsTrainer() {
		in.Center = actor.Center
	}
	if err := policy.Authorize(actor, policy.MemberAccount, policy.Create, policy.Target{Center: in.Center}); err != nil {
		return model.UserView{}, err
	}
	u, err := accountFields(in.Email, in.Phone, in.Password, in.FullName, model.RoleMember, in.Center)
	if err != nil {
		return model.UserView{}, err
	}
	if u.PasswordHash, err = utils.HashPassword(in.Password, s.BcryptCost); err != nil {
		return model.UserView{}, err
	}
	u.ApprovalStatus = model.StatusApproved
	u.Address = strings.TrimSpace(in.Address)
	u.EmergencyContact = in.EmergencyContact
	u.Goals = strings.TrimSpace(in.Goals)
	u.MedicalNotes = strings.TrimSpace(in.MedicalNotes)
	u.Membership = in.Membership
	if err := s.Users.Create(ctx, &u, nil); err != nil {
		return model.UserView{}, storeErr(err, "member")
	}
	return u.View(), nil
}

// MemberPatch carries optional member field changes.
type MemberPatch struct {
	FullName         *string
	Phone            *string
	Address          *string
	EmergencyContact *model.EmergencyContact
	Goals            *string
	MedicalNotes     *string
	Membership       *model.Membership
	IsActive         *bool
}

func (p MemberPatch) fields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.FullName != nil, policy.FieldFullName)
	add(p.Phone != nil, policy.FieldPhone)
	add(p.Address != nil, policy.FieldAddress)
	add(p.EmergencyContact != nil, policy.FieldEmergencyContact)
	add(p.Goals != nil, policy.FieldGoals)
	add(p.MedicalNotes != nil, policy.FieldMedicalNotes)
	add(p.Membership != nil, policy.FieldMembership)
	add(p.IsActive != nil, policy.FieldIsActive)
	return out
}

// Update applies a patch. Every field in it must be editable by the actor's
// role; a single forbidden field rejects the whole patch.
func (s *MemberService) Update(ctx context.Context, actor policy.Actor, id string, p MemberPatch) (model.UserView, error) {
	u, err := loadMember(ctx, s.Users, actor, id, policy.MemberAccount, policy.Update)
	if err != nil {
		return model.UserView{}, err
	}
	allowed := policy.EditableMemberFields(actor)
	for _, f := range p.fields() {
		if !allowed[f] {
			return model.UserView{}, apperr.Forbidden("not allowed to change " + f)
		}
	}
	if p.FullName != nil {
		name := strings.TrimSpace(*p.FullName)
		if name == "" {
			return model.UserView{}, apperr.Validation("full_name cannot be empty")
		}
		u.FullName = name
	}
	if p.Phone != nil {
		phone, err := utils.NormalizePhone(*p.Phone)
		if err != nil {
			return model.UserView{}, apperr.Validation("phone must be a valid 10 digit Indian mobile number")
		}
		u.Phone = phone
	}
	if p.Address != nil {
		u.Address = strings.TrimSpace(*p.Address)
	}
	if p.EmergencyContact != nil {
		u.EmergencyContact = p.EmergencyContact
	}
	if p.Goals != nil {
		u.Goals = strings.TrimSpace(*p.Goals)
	}
	if p.MedicalNotes != nil {
		u.MedicalNotes = strings.TrimSpace(*p.MedicalNotes)
	}
	if p.Membership != nil {
		m := *p.Membership
		m.LastPaymentReminder = u.Membership.LastPaymentReminder
		if m.StartDate != nil && m.EndDate != nil && m.EndDate.Before(*m.StartDate) {
			return model.UserView{}, apperr.Validation("membership end date is before its start date")
		}
		u.Membership = m
	}
	if err := s.Users.Update(ctx, u); err != nil {
		return model.UserView{}, storeErr(err, "member")
	}
	if p.IsActive != nil && *p.IsActive != u.IsActive {
		if err := s.Users.SetActive(ctx, u.ID, *p.IsActive); err != nil {
			return model.UserView{}, storeErr(err, "member")
		}
		u.IsActive = *p.IsActive
		if !u.IsActive {
			signOut(ctx, s.Tokens, s.Live, s.Log, u.ID)
		}
	}
	return u.View(), nil
}

// ChangeCenter moves a member to another center (admins only).
func (s *MemberService) ChangeCenter(ctx context.Context, actor policy.Actor, id string, center model.Center) (model.UserView, error) {
	u, err := loadMember(ctx, s.Users, actor, id, policy.MemberAccount, policy.Read)
	if err != nil {
		return model.UserView{}, err
	}
	if err := policy.Authorize(actor, policy.MemberCenter, policy.Update, memberTarget(u)); err != nil {
		return model.UserView{}, apperr.Forbidden("not allowed to change the member's center")
	}
	if !center.Valid() {
		return model.UserView{}, apperr.Validation("center must be one of Ranaghat, Chakdah, Madanpur")
	}
	if err := s.Users.SetCenter(ctx, u.ID, center); err != nil {
		return model.UserView{}, storeErr(err, "member")
	}
	u.Center = center
	dropLive(s.Live, u.ID)
	s.Notifier.Notify(ctx, u.ID, model.NotifyAccount, "Center changed",
		"You have been moved to the "+string(center)+" center", map[string]string{"center": string(center)})
	return u.View(), nil
}

// Deactivate soft-deletes a member and revokes their sessions.
func (s *MemberService) Deactivate(ctx context.Context, actor policy.Actor, id string) error {
	u, err := loadMember(ctx, s.Users, actor, id, policy.MemberAccount, policy.Delete)
	if err != nil {
		return err
	}
	if err := s.Users.SetActive(ctx, u.ID, false); err != nil {
		return storeErr(err, "member")
	}
	signOut(ctx, s.Tokens, s.Live, s.Log, u.ID)
	return nil
}

// signOut revokes userID's refresh tokens and closes their live connection.
func signOut(ctx context.Context, tokens TokenStore, live LiveChannel, log *zap.Logger, userID string) {
	if tokens != nil {
		if err := tokens.RevokeAllForUser(ctx, userID); err != nil && log != nil {
			log.Warn("revoke refresh tokens", zap.String("user_id", userID), zap.Error(err))
		}
	}
	dropLive(live, userID)
}

// MetricsInput is a body measurement snapshot.
type MetricsInput struct {
	Weight, Height, BodyFat, Chest, Waist, Hips, Biceps, Thighs *float64
	Notes                                                       string
	RecordedAt                                                  *time.Time
}

func (in MetricsInput) validate() error {
	for _, v := range []*float64{in.Weight, in.Height, in.BodyFat, in.Chest, in.Waist, in.Hips, in.Biceps, in.Thighs} {
		if v != nil && *v < 0 {
			return apperr.Validation("measurements cannot be negative")
		}
	}
	if in.BodyFat != nil && *in.BodyFat > 100 {
		return apperr.Validation("body_fat is a percentage")
	}
	return nil
}

func (in MetricsInput) apply(m *model.BodyMetrics) {
	m.Weight, m.Height, m.BodyFat = in.Weight, in.Height, in.BodyFat
	m.Chest, m.Waist, m.Hips = in.Chest, in.Waist, in.Hips
	m.Biceps, m.Thighs = in.Biceps, in.Thighs
	m.Notes = strings.TrimSpace(in.Notes)
}

// ListMetrics returns a member's measurement history.
func (s *MemberService) ListMetrics(ctx context.Context, actor policy.Actor, memberID string) ([]model.BodyMetrics, error) {
	u, err := loadMember(ctx, s.Users, actor, memberID, policy.Plan, policy.Read)
	if err != nil {
		return nil, err
	}
	out, err := s.Plans.ListMetrics(ctx, u.ID, 0)
	if err != nil {
		return nil, storeErr(err, "metrics")
	}
	if out == nil {
		out = []model.BodyMetrics{}
	}
	return out, nil
}

// AddMetrics records a snapshot for a member.
func (s *MemberService) AddMetrics(ctx context.Context, actor policy.Actor, memberID string, in MetricsInput) (model.BodyMetrics, error) {
	u, err := loadMember(ctx, s.Users, actor, memberID, policy.Plan, policy.Create)
	if err != nil {
		return model.BodyMetrics{}, err
	}
	if err := in.validate(); err != nil {
		return model.BodyMetrics{}, err
	}
	m := model.BodyMetrics{MemberID: u.ID, RecordedBy: actor.ID, RecordedAt: s.Clock.now()}
	if in.RecordedAt != nil {
		m.RecordedAt = in.RecordedAt.UTC()
	}
	in.apply(&m)
	if err := s.Plans.AddMetrics(ctx, &m); err != nil {
		return model.BodyMetrics{}, storeErr(err, "metrics")
	}
	return m, nil
}

func (s *MemberService) loadMetrics(ctx context.Context, actor policy.Actor, id string, act policy.Action) (model.BodyMetrics, error) {
	if err := policy.Gate(actor); err != nil {
		return model.BodyMetrics{}, err
	}
	m, err := s.Plans.GetMetrics(ctx, id)
	if err != nil {
		return model.BodyMetrics{}, storeErr(err, "metrics")
	}
	if _, err := loadMember(ctx, s.Users, actor, m.MemberID, policy.Plan, act); err != nil {
		if apperr.StatusOf(err) == 404 {
			return model.BodyMetrics{}, apperr.NotFound("metrics not found")
		}
		return model.BodyMetrics{}, err
	}
	return m, nil
}

// UpdateMetrics rewrites a snapshot.
func (s *MemberService) UpdateMetrics(ctx context.Context, actor policy.Actor, id string, in MetricsInput) (model.BodyMetrics, error) {
	m, err := s.loadMetrics(ctx, actor, id, policy.Update)
	if err != nil {
		return model.BodyMetrics{}, err
	}
	if err := in.validate(); err != nil {
		return model.BodyMetrics{}, err
	}
	in.apply(&m)
	if err := s.Plans.UpdateMetrics(ctx, &m); err != nil {
		return model.BodyMetrics{}, storeErr(err, "metrics")
	}
	return m, nil
}

// DeleteMetrics removes a snapshot.
func (s *MemberService) DeleteMetrics(ctx context.Context, actor policy.Actor, id string) error {
	if _, err := s.loadMetrics(ctx, actor, id, policy.Delete); err != nil {
		return err
	}
	return storeErr(s.Plans.DeleteMetrics(ctx, id), "metrics")
}

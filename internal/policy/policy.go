// Package policy holds the authorization rules of the gym: a declarative
// role × resource × action table, resolved against the caller's center and
// approval status. Every service consults it; no handler re-derives
// permissions on its own.
package policy

import (
	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/model"
)

// Actor is the authenticated caller, passed explicitly into every service call.
type Actor struct {
	ID      string
	Role    model.Role
	Center  model.Center
	Status  model.ApprovalStatus
	Primary bool
	Active  bool
}

// ActorOf builds an Actor from a stored user.
func ActorOf(u model.User) Actor {
	return Actor{
		ID:      u.ID,
		Role:    u.Role,
		Center:  u.Center,
		Status:  u.ApprovalStatus,
		Primary: u.IsPrimaryAdmin && u.Role == model.RoleAdmin,
		Active:  u.IsActive,
	}
}

func (a Actor) IsAdmin() bool   { return a.Role == model.RoleAdmin }
func (a Actor) IsTrainer() bool { return a.Role == model.RoleTrainer }
func (a Actor) IsMember() bool  { return a.Role == model.RoleMember }

// Resource names a protected record family.
type Resource string

const (
	MemberAccount    Resource = "member_account"
	MemberCenter     Resource = "member_center"
	MemberApproval   Resource = "member_approval"
	StaffApproval    Resource = "staff_approval"
	TrainerAccount   Resource = "trainer_account"
	TrainerCenter    Resource = "trainer_center"
	Attendance       Resource = "attendance"
	AttendanceQR     Resource = "attendance_qr"
	Plan             Resource = "plan"
	Announcement     Resource = "announcement"
	Merchandise      Resource = "merchandise"
	Order            Resource = "order"
	Payment          Resource = "payment"
	Notification     Resource = "notification"
	AdminDashboard   Resource = "admin_dashboard"
	TrainerDashboard Resource = "trainer_dashboard"
	MemberDashboard  Resource = "member_dashboard"
)

// Action is an operation attempted on a resource.
type Action string

const (
	Read     Action = "read"
	Create   Action = "create"
	Update   Action = "update"
	Delete   Action = "delete"
	Resolve  Action = "resolve"
	Complete Action = "complete"
	Cancel   Action = "cancel"
)

// Scope is how far an allowed action reaches. Scopes are ordered; a larger
// scope includes every smaller one.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeSelf
	ScopeCenter
	ScopeAll
)

func (s Scope) String() string {
	switch s {
	case ScopeSelf:
		return "self"
	case ScopeCenter:
		return "center"
	case ScopeAll:
		return "all"
	}
	return "none"
}

// principal is a rule row key. The primary admin is its own principal,
// evaluated in addition to the plain admin row.
type principal string

const (
	principalAdmin   principal = "admin"
	principalPrimary principal = "primary_admin"
	principalTrainer principal = "trainer"
	principalMember  principal = "member"
)

type rules map[Resource]map[Action]Scope

var table = map[principal]rules{
	principalPrimary: {
		StaffApproval:  {Read: ScopeAll, Resolve: ScopeAll},
		TrainerAccount: {Create: ScopeAll, Update: ScopeAll, Delete: ScopeAll},
		TrainerCenter:  {Update: ScopeAll},
	},
	principalAdmin: {
		MemberAccount:  {Read: ScopeAll, Create: ScopeAll, Update: ScopeAll, Delete: ScopeAll},
		MemberCenter:   {Update: ScopeAll},
		MemberApproval: {Read: ScopeAll, Resolve: ScopeAll},
		TrainerAccount: {Read: ScopeAll},
		Attendance:     {Read: ScopeAll, Create: ScopeAll, Update: ScopeAll},
		AttendanceQR:   {Read: ScopeAll, Create: ScopeAll},
		Plan:           {Read: ScopeAll, Create: ScopeAll, Update: ScopeAll, Delete: ScopeAll, Complete: ScopeAll},
		Announcement:   {Create: ScopeAll, Update: ScopeAll, Delete: ScopeAll},
		Merchandise:    {Read: ScopeAll, Create: ScopeAll, Update: ScopeAll, Delete: ScopeAll},
		Order:          {Read: ScopeAll, Update: ScopeAll, Cancel: ScopeAll},
		Payment:        {Read: ScopeAll, Create: ScopeAll},
		Notification:   {Read: ScopeSelf, Update: ScopeSelf},
		AdminDashboard: {Read: ScopeAll},
	},
	principalTrainer: {
		MemberAccount:    {Read: ScopeCenter, Create: ScopeCenter, Update: ScopeCenter},
		MemberApproval:   {Read: ScopeCenter, Resolve: ScopeCenter},
		TrainerAccount:   {Read: ScopeSelf},
		Attendance:       {Read: ScopeCenter, Create: ScopeCenter, Update: ScopeCenter},
		Plan:             {Read: ScopeCenter, Create: ScopeCenter, Update: ScopeCenter, Delete: ScopeCenter, Complete: ScopeCenter},
		Merchandise:      {Read: ScopeAll},
		Order:            {Read: ScopeSelf, Create: ScopeSelf, Cancel: ScopeSelf},
		Payment:          {Read: ScopeCenter, Create: ScopeCenter},
		Notification:     {Read: ScopeSelf, Update: ScopeSelf},
		TrainerDashboard: {Read: ScopeSelf},
	},
	principalMember: {
		MemberAccount:   {Read: ScopeSelf, Update: ScopeSelf},
		Attendance:      {Read: ScopeSelf, Create: ScopeSelf, Update: ScopeSelf},
		Plan:            {Read: ScopeSelf, Complete: ScopeSelf},
		Merchandise:     {Read: ScopeAll},
		Order:           {Read: ScopeSelf, Create: ScopeSelf, Cancel: ScopeSelf},
		Payment:         {Read: ScopeSelf},
		Notification:    {Read: ScopeSelf, Update: ScopeSelf},
		MemberDashboard: {Read: ScopeSelf},
	},
}

func principalsOf(a Actor) []principal {
	switch a.Role {
	case model.RoleAdmin:
		if a.Primary {
			return []principal{principalAdmin, principalPrimary}
		}
		return []principal{principalAdmin}
	case model.RoleTrainer:
		return []principal{principalTrainer}
	case model.RoleMember:
		return []principal{principalMember}
	}
	return nil
}

// ScopeFor returns the widest scope any of the actor's principals grants for
// the action. Callers that have not passed the approval gate get ScopeNone.
func ScopeFor(a Actor, res Resource, act Action) Scope {
	if Gate(a) != nil {
		return ScopeNone
	}
	best := ScopeNone
	for _, p := range principalsOf(a) {
		if s := table[p][res][act]; s > best {
			best = s
		}
	}
	return best
}

// Gate rejects callers that may not use any resource: deactivated accounts and
// accounts whose approval is pending or rejected.
func Gate(a Actor) error {
	if !a.Active {
		return apperr.Forbidden("account is deactivated")
	}
	switch a.Status {
	case model.StatusApproved:
		return nil
	case model.StatusRejected:
		return apperr.Forbidden("account registration was rejected")
	}
	return apperr.Forbidden("account is pending approval")
}

// Target describes the record an action is attempted on.
type Target struct {
	OwnerID string
	Center  model.Center
}

func covers(s Scope, a Actor, t Target) bool {
	switch s {
	case ScopeAll:
		return true
	case ScopeCenter:
		return a.Center != "" && t.Center == a.Center
	case ScopeSelf:
		return t.OwnerID != "" && t.OwnerID == a.ID
	}
	return false
}

// Authorize decides whether a may perform act on the target record.
//
// A record the caller cannot even read is reported as not found, so existence
// never leaks across centers or owners. A readable record whose action is not
// permitted is forbidden. Creation has nothing to hide and is always forbidden.
func Authorize(a Actor, res Resource, act Action, t Target) error {
	if err := Gate(a); err != nil {
		return err
	}
	if covers(ScopeFor(a, res, act), a, t) {
		return nil
	}
	if act == Create {
		return apperr.Forbidden("not allowed to create this record")
	}
	if act != Read && covers(ScopeFor(a, res, Read), a, t) {
		return apperr.Forbidden("not allowed to " + string(act) + " this record")
	}
	return apperr.NotFound("record not found")
}

// Require checks a resource-wide permission that has no individual target,
// such as opening a dashboard or creating an announcement.
func Require(a Actor, res Resource, act Action) error {
	if err := Gate(a); err != nil {
		return err
	}
	if ScopeFor(a, res, act) == ScopeNone {
		return apperr.Forbidden("not allowed")
	}
	return nil
}

// Filter restricts list queries. Exactly one of All, Center or OwnerID applies.
type Filter struct {
	All     bool
	Center  model.Center
	OwnerID string
}

// ListFilter returns the query filter for listing a resource.
func ListFilter(a Actor, res Resource) (Filter, error) {
	if err := Gate(a); err != nil {
		return Filter{}, err
	}
	switch ScopeFor(a, res, Read) {
	case ScopeAll:
		return Filter{All: true}, nil
	case ScopeCenter:
		return Filter{Center: a.Center}, nil
	case ScopeSelf:
		return Filter{OwnerID: a.ID}, nil
	}
	return Filter{}, apperr.Forbidden("not allowed to list this resource")
}

// Matches reports whether a record passes the filter.
func (f Filter) Matches(t Target) bool {
	switch {
	case f.All:
		return true
	case f.Center != "":
		return t.Center == f.Center
	case f.OwnerID != "":
		return t.OwnerID == f.OwnerID
	}
	return false
}

package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/metrics"
	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
	"github.com/iliyamo/gym-management/internal/repository"
)

// ApprovalService lists and resolves registration requests.
type ApprovalService struct {
	Approvals ApprovalStore
	Tokens    TokenStore
	Notifier  *Notifier
	Live      LiveChannel
	Log       *zap.Logger
	Clock     Clock
}

// approvalResource maps the requested role to the resource guarding it.
// Member requests are center scoped; admin and trainer requests belong to
// the primary admin alone.
func approvalResource(role model.Role) policy.Resource {
	if role == model.RoleMember {
		return policy.MemberApproval
	}
	return policy.StaffApproval
}

// visibleQueries returns one query per resource the actor may list.
func visibleQueries(actor policy.Actor, status model.ApprovalStatus, limit int) ([]repository.ApprovalQuery, error) {
	if err := policy.Gate(actor); err != nil {
		return nil, err
	}
	var qs []repository.ApprovalQuery
	if f, err := policy.ListFilter(actor, policy.MemberApproval); err == nil {
		qs = append(qs, repository.ApprovalQuery{Status: status, Roles: []model.Role{model.RoleMember}, Center: f.Center, Limit: limit})
	}
	if policy.ScopeFor(actor, policy.StaffApproval, policy.Read) == policy.ScopeAll {
		qs = append(qs, repository.ApprovalQuery{Status: status, Roles: []model.Role{model.RoleAdmin, model.RoleTrainer}, Limit: limit})
	}
	if len(qs) == 0 {
		return nil, apperr.Forbidden("not allowed to review approvals")
	}
	return qs, nil
}

func (s *ApprovalService) list(ctx context.Context, actor policy.Actor, status model.ApprovalStatus, limit int) ([]model.ApprovalRequest, error) {
	qs, err := visibleQueries(actor, status, limit)
	if err != nil {
		return nil, err
	}
	out := []model.ApprovalRequest{}
	for _, q := range qs {
		rows, err := s.Approvals.List(ctx, q)
		if err != nil {
			return nil, storeErr(err, "approval request")
		}
		out = append(out, rows...)
	}
	return out, nil
}

// Pending lists the requests the actor may resolve.
func (s *ApprovalService) Pending(ctx context.Context, actor policy.Actor) ([]model.ApprovalRequest, error) {
	return s.list(ctx, actor, model.StatusPending, 0)
}

// History lists resolved requests in the actor's scope.
func (s *ApprovalService) History(ctx context.Context, actor policy.Actor, limit int) ([]model.ApprovalRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	return s.list(ctx, actor, "", limit)
}

// Approve admits the requester.
func (s *ApprovalService) Approve(ctx context.Context, actor policy.Actor, id string) (model.ApprovalRequest, error) {
	return s.resolve(ctx, actor, id, model.StatusApproved, "")
}

// Reject refuses the requester and deactivates the account.
func (s *ApprovalService) Reject(ctx context.Context, actor policy.Actor, id, reason string) (model.ApprovalRequest, error) {
	return s.resolve(ctx, actor, id, model.StatusRejected, strings.TrimSpace(reason))
}

// resolve applies a decision exactly once. A request that is no longer
// pending, whether it was resolved earlier or concurrently, is a conflict and
// leaves the first decision in place.
func (s *ApprovalService) resolve(ctx context.Context, actor policy.Actor, id string, decision model.ApprovalStatus, reason string) (model.ApprovalRequest, error) {
	req, err := s.Approvals.Get(ctx, id)
	if err != nil {
		if err := policy.Gate(actor); err != nil {
			return model.ApprovalRequest{}, err
		}
		return model.ApprovalRequest{}, storeErr(err, "approval request")
	}
	target := policy.Target{OwnerID: req.UserID, Center: req.Center}
	if err := policy.Authorize(actor, approvalResource(req.UserRole), policy.Resolve, target); err != nil {
		return model.ApprovalRequest{}, err
	}
	if req.UserID == actor.ID {
		return model.ApprovalRequest{}, apperr.Forbidden("cannot resolve your own request")
	}
	if req.Status != model.StatusPending {
		return model.ApprovalRequest{}, apperr.Conflict("already processed")
	}

	at := s.Clock.now()
	if err := s.Approvals.Resolve(ctx, req, decision, actor.ID, reason, at); err != nil {
		return model.ApprovalRequest{}, storeErr(err, "approval request")
	}
	metrics.ApprovalsTotal.WithLabelValues(string(decision)).Inc()

	req.Status, req.ReviewedBy, req.ReviewedAt, req.RejectionReason = decision, actor.ID, &at, reason
	if decision == model.StatusRejected {
		signOut(ctx, s.Tokens, s.Live, s.Log, req.UserID)
	}

	title, body := "Registration approved", "Your account has been approved. Welcome to the gym!"
	if decision == model.StatusRejected {
		title, body = "Registration rejected", "Your registration was not approved."
		if reason != "" {
			body += " Reason: " + reason
		}
	}
	s.Notifier.Notify(ctx, req.UserID, model.NotifyApproval, title, body,
		map[string]string{"request_id": req.ID, "status": string(decision)})
	return req, nil
}

package service

import (
	"context"

	"github.com/worktally/worktally-backend/internal/timesheet/repository"
	"github.com/worktally/worktally-backend/pkg/errors"
	"github.com/worktally/worktally-backend/pkg/tenant"
)

// GetApproval returns the payroll gate for a user. A user with no recorded
// decision yet yields a not found error; the payroll view itself treats a
// missing row as the undecided state.
func (s *Service) GetApproval(ctx context.Context, userID string) (*repository.PayrollApproval, error) {
	return s.approvals.GetByUserID(ctx, userID)
}

// SetApproval records an admin decision on a user's payroll gate.
func (s *Service) SetApproval(ctx context.Context, userID string, state int, decidedBy string) (*repository.PayrollApproval, error) {
	switch state {
	case repository.ApprovalNone, repository.ApprovalApproved, repository.ApprovalRejected:
	default:
		return nil, errors.Validation(map[string]string{
			"approval": "must be 0, 1 or 2",
		})
	}

	approval, err := s.approvals.Upsert(ctx, userID, state, decidedBy)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithUserID(userID)
	if tenantID, terr := tenant.TenantID(ctx); terr == nil {
		s.events.PublishApprovalUpdated(ctx, tenantID, userID, state, decidedBy)
		log = log.WithTenantID(tenantID)
	}

	log.Info().
		Int("approval", state).
		Str("decided_by", decidedBy).
		Msg("Payroll approval updated")

	return approval, nil
}

// RejectApproval forces a user's payroll gate to the rejected state.
func (s *Service) RejectApproval(ctx context.Context, userID string, decidedBy string) (*repository.PayrollApproval, error) {
	approval, err := s.approvals.Upsert(ctx, userID, repository.ApprovalRejected, decidedBy)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithUserID(userID)
	if tenantID, terr := tenant.TenantID(ctx); terr == nil {
		s.events.PublishApprovalRejected(ctx, tenantID, userID, decidedBy)
		log = log.WithTenantID(tenantID)
	}

	log.Info().
		Str("decided_by", decidedBy).
		Msg("Payroll approval rejected")

	return approval, nil
}

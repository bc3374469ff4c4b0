package service

import (
	"context"

	"github.com/worktally/worktally-backend/pkg/errors"
	"github.com/worktally/worktally-backend/pkg/tenant"
)

// Flagger values accepted by SetTaskFlag
const (
	FlaggerClear = 0
	FlaggerSet   = 1
)

// SetTaskFlag marks or unmarks a task as being edited by the user.
// Setting a flag clears any other flag the user holds in the same
// transaction, so at most one task per user is ever flagged.
func (s *Service) SetTaskFlag(ctx context.Context, userID string, taskID int64, flagger int) error {
	log := s.logger.WithUserID(userID)

	switch flagger {
	case FlaggerSet:
		if err := s.flags.FlagExclusive(ctx, userID, taskID); err != nil {
			return err
		}
		if tenantID, terr := tenant.TenantID(ctx); terr == nil {
			s.events.PublishTaskFlagged(ctx, tenantID, userID, taskID)
			log = log.WithTenantID(tenantID)
		}
	case FlaggerClear:
		if err := s.flags.Unflag(ctx, userID, taskID); err != nil {
			return err
		}
		if tenantID, terr := tenant.TenantID(ctx); terr == nil {
			s.events.PublishTaskUnflagged(ctx, tenantID, userID, taskID)
			log = log.WithTenantID(tenantID)
		}
	default:
		return errors.Validation(map[string]string{
			"flagger": "must be 0 or 1",
		})
	}

	log.Debug().
		Int64("task_id", taskID).
		Int("flagger", flagger).
		Msg("Task flag updated")

	return nil
}

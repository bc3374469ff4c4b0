package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/worktally/worktally-backend/internal/timesheet/repository"
	"github.com/worktally/worktally-backend/pkg/errors"
	"github.com/worktally/worktally-backend/pkg/tenant"
)

// EditSpan is the corrected interval for one record. Seconds must be
// present but is advisory: the server recomputes the span length and the
// stored value is always the recomputation, never the client's figure.
// A mismatch is not an error.
type EditSpan struct {
	StartISO string `json:"startISO" validate:"required"`
	EndISO   string `json:"endISO" validate:"required"`
	Seconds  *int64 `json:"seconds" validate:"required"`
}

// EditChange is one correction in a reconciliation batch.
type EditChange struct {
	SerialID  int64    `json:"serial_id" validate:"required"`
	TaskID    int64    `json:"task_id" validate:"required"`
	ProjectID *int64   `json:"project_id,omitempty"`
	New       EditSpan `json:"new" validate:"required"`
}

// PreviewRow is one change rendered the way the timesheet view would show
// it after the batch commits.
type PreviewRow struct {
	SerialID int64  `json:"serial_id"`
	TaskID   int64  `json:"task_id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Seconds  int64  `json:"seconds"`
	Elapsed  string `json:"elapsed"`
}

// UpdatedRow is one committed change as persisted.
type UpdatedRow struct {
	SerialID int64  `json:"serial_id"`
	TaskID   int64  `json:"task_id"`
	StartISO string `json:"startISO"`
	EndISO   string `json:"endISO"`
	Seconds  int64  `json:"seconds"`
	Label    string `json:"label"`
}

// ApplyResult reports a committed reconciliation batch.
type ApplyResult struct {
	Updated []UpdatedRow `json:"updated"`
}

// BusyResult reports which of the requested records belong to sessions
// that are still running.
type BusyResult struct {
	AnyBusy     bool    `json:"any_busy"`
	BusySerials []int64 `json:"busy_serials"`
}

// resolveSpans validates a batch and recomputes each span's length. The
// whole batch is rejected on the first invalid change.
func (s *Service) resolveSpans(changes []EditChange) ([]repository.SpanUpdate, error) {
	if len(changes) == 0 {
		return nil, errors.Validation(map[string]string{
			"changes": "must not be empty",
		})
	}

	updates := make([]repository.SpanUpdate, 0, len(changes))
	for i, c := range changes {
		if c.New.Seconds == nil {
			return nil, errors.Validation(map[string]string{
				fmt.Sprintf("changes[%d].new.seconds", i): "must be present",
			})
		}
		start, err := time.Parse(time.RFC3339, c.New.StartISO)
		if err != nil {
			return nil, errors.Validation(map[string]string{
				fmt.Sprintf("changes[%d].new.startISO", i): "must be an RFC 3339 timestamp",
			})
		}
		end, err := time.Parse(time.RFC3339, c.New.EndISO)
		if err != nil {
			return nil, errors.Validation(map[string]string{
				fmt.Sprintf("changes[%d].new.endISO", i): "must be an RFC 3339 timestamp",
			})
		}
		if !end.After(start) {
			return nil, errors.Validation(map[string]string{
				fmt.Sprintf("changes[%d].new", i): "end must be after start",
			})
		}

		updates = append(updates, repository.SpanUpdate{
			SerialID: c.SerialID,
			TaskID:   c.TaskID,
			Start:    start,
			End:      end,
			Seconds:  int64(math.Floor(end.Sub(start).Seconds())),
		})
	}

	return updates, nil
}

// ApplyEdits commits a reconciliation batch atomically. Every change must
// name an existing record whose task matches, and no target session may
// still be running; otherwise nothing is written. Editing flags on the
// touched tasks clear in the same transaction.
func (s *Service) ApplyEdits(ctx context.Context, userID, appliedBy string, changes []EditChange) (*ApplyResult, error) {
	updates, err := s.resolveSpans(changes)
	if err != nil {
		return nil, err
	}

	if err := s.records.ApplySpanUpdates(ctx, userID, updates); err != nil {
		return nil, err
	}

	serialIDs := make([]int64, len(updates))
	updated := make([]UpdatedRow, len(updates))
	for i, u := range updates {
		serialIDs[i] = u.SerialID
		updated[i] = UpdatedRow{
			SerialID: u.SerialID,
			TaskID:   u.TaskID,
			StartISO: u.Start.Format(time.RFC3339),
			EndISO:   u.End.Format(time.RFC3339),
			Seconds:  u.Seconds,
			Label:    FormatHMS(u.Seconds),
		}
	}

	log := s.logger.WithUserID(userID)
	if tenantID, terr := tenant.TenantID(ctx); terr == nil {
		s.events.PublishEditsApplied(ctx, tenantID, userID, serialIDs, appliedBy)
		log = log.WithTenantID(tenantID)
	}

	log.Info().
		Str("applied_by", appliedBy).
		Int("count", len(updates)).
		Msg("Reconciliation batch applied")

	return &ApplyResult{Updated: updated}, nil
}

// PreviewEdits renders a batch the way the timesheet would show it after
// committing, without touching storage. The same validation as ApplyEdits
// runs, so a clean preview implies the batch is at least well formed.
func (s *Service) PreviewEdits(changes []EditChange) ([]PreviewRow, error) {
	updates, err := s.resolveSpans(changes)
	if err != nil {
		return nil, err
	}

	rows := make([]PreviewRow, len(updates))
	for i, u := range updates {
		rows[i] = PreviewRow{
			SerialID: u.SerialID,
			TaskID:   u.TaskID,
			Start:    DisplayTime(u.Start, s.loc),
			End:      DisplayTime(u.End, s.loc),
			Seconds:  u.Seconds,
			Elapsed:  FormatHMS(u.Seconds),
		}
	}

	return rows, nil
}

// CheckBusy reports which of the given records belong to sessions that are
// still running. A pre-flight for the edit dialog; ApplyEdits re-checks
// inside its transaction regardless.
func (s *Service) CheckBusy(ctx context.Context, serialIDs []int64) (*BusyResult, error) {
	if len(serialIDs) == 0 {
		return nil, errors.Validation(map[string]string{
			"serial_ids": "must not be empty",
		})
	}

	busy, err := s.records.ListBusySerials(ctx, serialIDs)
	if err != nil {
		return nil, err
	}
	if busy == nil {
		busy = []int64{}
	}

	return &BusyResult{
		AnyBusy:     len(busy) > 0,
		BusySerials: busy,
	}, nil
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/worktally/worktally-backend/pkg/database"
	"github.com/worktally/worktally-backend/pkg/errors"
	"github.com/worktally/worktally-backend/pkg/tenant"
)

// Payment status values for a time record
const (
	PaymentPending   = "pending"
	PaymentSubmitted = "submitted"
	PaymentPaid      = "paid"
)

// TimeRecord is one tracked work interval or legacy duration entry.
// Records are written by the tracking capture pipeline; this service reads
// them for aggregation and mutates only start/end/duration through the
// reconciliation engine.
type TimeRecord struct {
	SerialID       int64      `db:"serial_id" json:"serial_id"`
	TaskID         int64      `db:"task_id" json:"task_id"`
	ProjectID      *int64     `db:"project_id" json:"project_id,omitempty"`
	TaskStart      *time.Time `db:"task_start" json:"task_start,omitempty"`
	TaskEnd        *time.Time `db:"task_end" json:"task_end,omitempty"`
	Duration       *float64   `db:"duration" json:"duration,omitempty"`
	WorkDate       *time.Time `db:"work_date" json:"work_date,omitempty"`
	SessionPayment *float64   `db:"session_payment" json:"session_payment,omitempty"`
	PaymentStatus  string     `db:"payment_status" json:"payment_status"`
	TenantID       string     `db:"tenant_id" json:"tenant_id"`
	UserID         string     `db:"user_id" json:"user_id"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Busy reports whether the record belongs to a session that is still running.
func (r *TimeRecord) Busy() bool {
	return r.TaskStart != nil && r.TaskEnd == nil
}

// SpanUpdate is one reconciled correction to a record's tracked interval.
// Seconds is the authoritative server-side recomputation.
type SpanUpdate struct {
	SerialID int64
	TaskID   int64
	Start    time.Time
	End      time.Time
	Seconds  int64
}

// TimeRecordRepository handles time record persistence
type TimeRecordRepository struct {
	db *database.DB
}

// NewTimeRecordRepository creates a new time record repository
func NewTimeRecordRepository(db *database.DB) *TimeRecordRepository {
	return &TimeRecordRepository{db: db}
}

const timeRecordColumns = `
	serial_id, task_id, project_id, task_start, task_end, duration,
	work_date, session_payment, payment_status, tenant_id, user_id,
	created_at, updated_at`

// ListForUserInRange returns a user's records whose anchor instant falls in
// [start, end). The anchor prefers task_start, then task_end, then work_date;
// records with no anchor are unbucketable and excluded here already.
// TENANT-ISOLATED: RLS filters rows by the tenant in context.
func (r *TimeRecordRepository) ListForUserInRange(ctx context.Context, userID string, start, end time.Time) ([]*TimeRecord, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var records []*TimeRecord

	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			SELECT ` + timeRecordColumns + `
			FROM time_records
			WHERE user_id = $1
			  AND COALESCE(task_start, task_end, work_date) >= $2
			  AND COALESCE(task_start, task_end, work_date) < $3
			ORDER BY COALESCE(task_start, task_end, work_date), serial_id
		`
		return r.db.SelectContext(ctx, &records, query, userID, start, end)
	})

	if err != nil {
		return nil, err
	}

	return records, nil
}

// ListPendingForUser returns every record of the user still awaiting payment,
// regardless of date. Used by the payroll submission view.
// TENANT-ISOLATED: RLS filters rows by the tenant in context.
func (r *TimeRecordRepository) ListPendingForUser(ctx context.Context, userID string) ([]*TimeRecord, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var records []*TimeRecord

	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			SELECT ` + timeRecordColumns + `
			FROM time_records
			WHERE user_id = $1 AND payment_status = $2
			ORDER BY COALESCE(task_start, task_end, work_date), serial_id
		`
		return r.db.SelectContext(ctx, &records, query, userID, PaymentPending)
	})

	if err != nil {
		return nil, err
	}

	return records, nil
}

// GetBySerial returns a single record by serial id.
// TENANT-ISOLATED: RLS filters rows by the tenant in context.
func (r *TimeRecordRepository) GetBySerial(ctx context.Context, serialID int64) (*TimeRecord, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var record TimeRecord

	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `SELECT ` + timeRecordColumns + ` FROM time_records WHERE serial_id = $1`
		return r.db.GetContext(ctx, &record, query, serialID)
	})

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("time_record")
	}
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// ListBusySerials reports which of the given serial ids belong to sessions
// that are still running (started but never ended).
// TENANT-ISOLATED: RLS filters rows by the tenant in context.
func (r *TimeRecordRepository) ListBusySerials(ctx context.Context, serialIDs []int64) ([]int64, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var busy []int64

	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			SELECT serial_id
			FROM time_records
			WHERE serial_id = ANY($1)
			  AND task_start IS NOT NULL
			  AND task_end IS NULL
			ORDER BY serial_id
		`
		return r.db.SelectContext(ctx, &busy, query, pq.Array(serialIDs))
	})

	if err != nil {
		return nil, err
	}

	return busy, nil
}

// ApplySpanUpdates applies a reconciled edit batch in one transaction.
// Per update it locks the target row, verifies the serial/task pairing,
// re-checks that the session is not still running, persists the new span,
// and clears the editing flag on the task. Any failure aborts the whole
// batch; no partial writes become visible.
// TENANT-ISOLATED: RLS filters rows by the tenant in context.
func (r *TimeRecordRepository) ApplySpanUpdates(ctx context.Context, userID string, updates []SpanUpdate) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		for _, u := range updates {
			var current struct {
				TaskID    int64      `db:"task_id"`
				TaskStart *time.Time `db:"task_start"`
				TaskEnd   *time.Time `db:"task_end"`
			}

			// Lock the row for the rest of the batch so a concurrent tracker
			// stop or second edit batch serializes behind us.
			lockQuery := `
				SELECT task_id, task_start, task_end
				FROM time_records
				WHERE serial_id = $1
				FOR UPDATE
			`
			err := r.db.GetContext(ctx, &current, lockQuery, u.SerialID)
			if err == sql.ErrNoRows {
				return errors.NotFound("time_record")
			}
			if err != nil {
				return err
			}

			if current.TaskID != u.TaskID {
				return errors.Validation(map[string]string{
					"task_id": "does not match the record's task",
				})
			}

			// Busy re-check inside the transaction: the pre-flight busy-check
			// endpoint cannot rule out a session that started since.
			if current.TaskStart != nil && current.TaskEnd == nil {
				return errors.Conflict("session is still running and cannot be edited")
			}

			updateQuery := `
				UPDATE time_records
				SET task_start = $2, task_end = $3, duration = $4, updated_at = NOW()
				WHERE serial_id = $1
			`
			if _, err := r.db.ExecContext(ctx, updateQuery, u.SerialID, u.Start, u.End, float64(u.Seconds)); err != nil {
				return err
			}

			// The edit is complete, so the task is no longer "being edited".
			clearQuery := `
				UPDATE task_flags
				SET flagged = FALSE, updated_at = NOW()
				WHERE user_id = $1 AND task_id = $2 AND flagged
			`
			if _, err := r.db.ExecContext(ctx, clearQuery, userID, u.TaskID); err != nil {
				return err
			}
		}

		return nil
	})
}

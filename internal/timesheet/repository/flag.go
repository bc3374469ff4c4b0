package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/worktally/worktally-backend/pkg/database"
	"github.com/worktally/worktally-backend/pkg/tenant"
)

// TaskFlag marks a task as currently being edited by a user. At most one
// task per user carries flagged = TRUE at any time.
type TaskFlag struct {
	UserID    string    `db:"user_id" json:"user_id"`
	TaskID    int64     `db:"task_id" json:"task_id"`
	Flagged   bool      `db:"flagged" json:"flagged"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FlagRepository handles task flag persistence
type FlagRepository struct {
	db *database.DB
}

// NewFlagRepository creates a new flag repository
func NewFlagRepository(db *database.DB) *FlagRepository {
	return &FlagRepository{db: db}
}

// FlagExclusive flags the given task for the user and clears every other
// flag the user holds, in one transaction. Concurrent calls cannot leave
// two tasks flagged.
// TENANT-ISOLATED: RLS filters rows by the tenant in context.
func (r *FlagRepository) FlagExclusive(ctx context.Context, userID string, taskID int64) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		clearQuery := `
			UPDATE task_flags
			SET flagged = FALSE, updated_at = NOW()
			WHERE user_id = $1 AND task_id <> $2 AND flagged
		`
		if _, err := r.db.ExecContext(ctx, clearQuery, userID, taskID); err != nil {
			return err
		}

		setQuery := `
			INSERT INTO task_flags (user_id, task_id, flagged, tenant_id)
			VALUES ($1, $2, TRUE, current_setting('app.current_tenant')::uuid)
			ON CONFLICT (tenant_id, user_id, task_id)
			DO UPDATE SET flagged = TRUE, updated_at = NOW()
		`
		_, err := r.db.ExecContext(ctx, setQuery, userID, taskID)
		return err
	})
}

// Unflag clears the flag on one task for the user. Clearing a task that was
// never flagged is a no-op.
// TENANT-ISOLATED: RLS filters rows by the tenant in context.
func (r *FlagRepository) Unflag(ctx context.Context, userID string, taskID int64) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			UPDATE task_flags
			SET flagged = FALSE, updated_at = NOW()
			WHERE user_id = $1 AND task_id = $2 AND flagged
		`
		_, err := r.db.ExecContext(ctx, query, userID, taskID)
		return err
	})
}

// GetFlaggedTask returns the task the user currently has flagged, or nil.
// TENANT-ISOLATED: RLS filters rows by the tenant in context.
func (r *FlagRepository) GetFlaggedTask(ctx context.Context, userID string) (*TaskFlag, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var flag TaskFlag

	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			SELECT user_id, task_id, flagged, tenant_id, created_at, updated_at
			FROM task_flags
			WHERE user_id = $1 AND flagged
		`
		return r.db.GetContext(ctx, &flag, query, userID)
	})

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &flag, nil
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/worktally/worktally-backend/pkg/database"
	"github.com/worktally/worktally-backend/pkg/errors"
	"github.com/worktally/worktally-backend/pkg/tenant"
)

// Approval gate states for payroll submission
const (
	ApprovalNone     = 0
	ApprovalApproved = 1
	ApprovalRejected = 2
)

// PayrollApproval is the per-user gate that controls whether pending hours
// may be submitted for payment.
type PayrollApproval struct {
	UserID    string    `db:"user_id" json:"user_id"`
	Approval  int       `db:"approval" json:"approval"`
	DecidedBy *string   `db:"decided_by" json:"decided_by,omitempty"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ApprovalRepository handles payroll approval persistence
type ApprovalRepository struct {
	db *database.DB
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *database.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// GetByUserID returns the approval row for a user.
// TENANT-ISOLATED: RLS filters rows by the tenant in context.
func (r *ApprovalRepository) GetByUserID(ctx context.Context, userID string) (*PayrollApproval, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var approval PayrollApproval

	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			SELECT user_id, approval, decided_by, tenant_id, created_at, updated_at
			FROM payroll_approvals
			WHERE user_id = $1
		`
		return r.db.GetContext(ctx, &approval, query, userID)
	})

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("payroll_approval")
	}
	if err != nil {
		return nil, err
	}

	return &approval, nil
}

// Upsert sets a user's approval state, creating the row on first decision.
// TENANT-ISOLATED: RLS filters rows by the tenant in context.
func (r *ApprovalRepository) Upsert(ctx context.Context, userID string, state int, decidedBy string) (*PayrollApproval, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var approval PayrollApproval

	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			INSERT INTO payroll_approvals (user_id, approval, decided_by, tenant_id)
			VALUES ($1, $2, $3, current_setting('app.current_tenant')::uuid)
			ON CONFLICT (tenant_id, user_id)
			DO UPDATE SET approval = $2, decided_by = $3, updated_at = NOW()
			RETURNING user_id, approval, decided_by, tenant_id, created_at, updated_at
		`
		return r.db.GetContext(ctx, &approval, query, userID, state, decidedBy)
	})

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	return &approval, nil
}

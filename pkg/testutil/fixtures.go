package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/worktally/worktally-backend/pkg/tenant"
)

// TimeRecordFixture carries the writable fields of a seeded time record.
// Nil pointers stay NULL. PaymentStatus defaults to pending.
type TimeRecordFixture struct {
	UserID         string
	TaskID         int64
	ProjectID      *int64
	TaskStart      *time.Time
	TaskEnd        *time.Time
	Duration       *float64
	WorkDate       *time.Time
	SessionPayment *float64
	PaymentStatus  string
}

// InsertTimeRecord seeds one record under the tenant in ctx and returns
// its serial id.
func (s *IntegrationSuite) InsertTimeRecord(t *testing.T, ctx context.Context, f TimeRecordFixture) int64 {
	t.Helper()

	if f.PaymentStatus == "" {
		f.PaymentStatus = "pending"
	}

	var serialID int64
	err := s.withTenant(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO time_records
				(task_id, project_id, task_start, task_end, duration, work_date,
				 session_payment, payment_status, tenant_id, user_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
				current_setting('app.current_tenant')::uuid, $9)
			RETURNING serial_id
		`
		return s.DB.GetContext(ctx, &serialID, query,
			f.TaskID, f.ProjectID, f.TaskStart, f.TaskEnd, f.Duration,
			f.WorkDate, f.SessionPayment, f.PaymentStatus, f.UserID)
	})
	if err != nil {
		t.Fatalf("failed to seed time record: %v", err)
	}

	return serialID
}

// InsertApproval seeds a payroll approval row under the tenant in ctx.
func (s *IntegrationSuite) InsertApproval(t *testing.T, ctx context.Context, userID string, approval int, decidedBy string) {
	t.Helper()

	err := s.withTenant(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO payroll_approvals (user_id, approval, decided_by, tenant_id)
			VALUES ($1, $2, $3, current_setting('app.current_tenant')::uuid)
			ON CONFLICT (tenant_id, user_id)
			DO UPDATE SET approval = $2, decided_by = $3, updated_at = NOW()
		`
		_, err := s.DB.ExecContext(ctx, query, userID, approval, decidedBy)
		return err
	})
	if err != nil {
		t.Fatalf("failed to seed approval: %v", err)
	}
}

// CountFlagged returns how many tasks the user currently has flagged under
// the tenant in ctx.
func (s *IntegrationSuite) CountFlagged(t *testing.T, ctx context.Context, userID string) int {
	t.Helper()

	var count int
	err := s.withTenant(ctx, func(ctx context.Context) error {
		return s.DB.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM task_flags WHERE user_id = $1 AND flagged`, userID)
	})
	if err != nil {
		t.Fatalf("failed to count flags: %v", err)
	}

	return count
}

// withTenant runs fn inside a tenant transaction, taking the tenant id
// from ctx the same way repositories do.
func (s *IntegrationSuite) withTenant(ctx context.Context, fn func(context.Context) error) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}
	return s.DB.WithTenantRLS(ctx, tenantID, fn)
}

// Package testutil provides testing utilities for WorkTally backend
// services. It includes a testcontainers PostgreSQL harness with the
// timesheet schema and row-level-security policies, sqlmock factories,
// and fixture helpers.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // Optional: defaults to postgres:15-alpine
}

// DefaultPostgresConfig returns sensible defaults for test containers
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "worktally_test",
		Username: "test",
		Password: "test",
		Image:    "postgres:15-alpine",
	}
}

// NewPostgresContainer creates a new PostgreSQL test container.
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	if cfg.Image == "" {
		cfg.Image = "postgres:15-alpine"
	}
	if cfg.Database == "" {
		cfg.Database = "worktally_test"
	}
	if cfg.Username == "" {
		cfg.Username = "test"
	}
	if cfg.Password == "" {
		cfg.Password = "test"
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}

// ApplyTimesheetSchema creates the timesheet tables with their
// row-level-security policies. FORCE ROW LEVEL SECURITY makes the policies
// apply to the table owner too, which is the role tests connect as.
func (c *PostgresContainer) ApplyTimesheetSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS time_records (
			serial_id BIGSERIAL PRIMARY KEY,
			task_id BIGINT NOT NULL,
			project_id BIGINT,
			task_start TIMESTAMPTZ,
			task_end TIMESTAMPTZ,
			duration DOUBLE PRECISION,
			work_date TIMESTAMPTZ,
			session_payment DOUBLE PRECISION,
			payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
			tenant_id UUID NOT NULL,
			user_id UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT time_records_payment_status_valid
				CHECK (payment_status IN ('pending', 'submitted', 'paid'))
		);

		CREATE TABLE IF NOT EXISTS payroll_approvals (
			user_id UUID NOT NULL,
			approval SMALLINT NOT NULL DEFAULT 0,
			decided_by UUID,
			tenant_id UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (tenant_id, user_id),
			CONSTRAINT payroll_approvals_approval_valid
				CHECK (approval IN (0, 1, 2))
		);

		CREATE TABLE IF NOT EXISTS task_flags (
			user_id UUID NOT NULL,
			task_id BIGINT NOT NULL,
			flagged BOOLEAN NOT NULL DEFAULT FALSE,
			tenant_id UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (tenant_id, user_id, task_id)
		);

		CREATE INDEX IF NOT EXISTS idx_time_records_user_anchor
			ON time_records (tenant_id, user_id, COALESCE(task_start, task_end, work_date));

		ALTER TABLE time_records ENABLE ROW LEVEL SECURITY;
		ALTER TABLE time_records FORCE ROW LEVEL SECURITY;
		ALTER TABLE payroll_approvals ENABLE ROW LEVEL SECURITY;
		ALTER TABLE payroll_approvals FORCE ROW LEVEL SECURITY;
		ALTER TABLE task_flags ENABLE ROW LEVEL SECURITY;
		ALTER TABLE task_flags FORCE ROW LEVEL SECURITY;

		DROP POLICY IF EXISTS tenant_isolation ON time_records;
		CREATE POLICY tenant_isolation ON time_records
			USING (tenant_id = NULLIF(current_setting('app.current_tenant', TRUE), '')::uuid)
			WITH CHECK (tenant_id = NULLIF(current_setting('app.current_tenant', TRUE), '')::uuid);

		DROP POLICY IF EXISTS tenant_isolation ON payroll_approvals;
		CREATE POLICY tenant_isolation ON payroll_approvals
			USING (tenant_id = NULLIF(current_setting('app.current_tenant', TRUE), '')::uuid)
			WITH CHECK (tenant_id = NULLIF(current_setting('app.current_tenant', TRUE), '')::uuid);

		DROP POLICY IF EXISTS tenant_isolation ON task_flags;
		CREATE POLICY tenant_isolation ON task_flags
			USING (tenant_id = NULLIF(current_setting('app.current_tenant', TRUE), '')::uuid)
			WITH CHECK (tenant_id = NULLIF(current_setting('app.current_tenant', TRUE), '')::uuid);
	`

	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create timesheet schema: %w", err)
	}

	return nil
}

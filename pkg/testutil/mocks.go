package testutil

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/worktally/worktally-backend/pkg/database"
	"github.com/worktally/worktally-backend/pkg/logger"
)

// NewMockDB returns a database wrapper backed by sqlmock for repository
// unit tests.
func NewMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()

	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })

	db := sqlx.NewDb(raw, "sqlmock")
	return database.NewFromSqlx(db, NewTestLogger()), mock
}

// NewTestLogger returns a quiet logger for tests.
func NewTestLogger() *logger.Logger {
	return logger.New("test", "test")
}

// ExpectTenantTx registers the transaction preamble every tenant-scoped
// repository call issues: BEGIN followed by SET LOCAL app.current_tenant.
// The test then registers its own query expectations and finishes with
// ExpectCommit or ExpectRollback.
func ExpectTenantTx(mock sqlmock.Sqlmock, tenantID string) {
	mock.ExpectBegin()
	mock.ExpectExec("SET LOCAL app.current_tenant = '" + tenantID + "'").
		WillReturnResult(sqlmock.NewResult(0, 0))
}

// AnyTime matches any time.Time argument.
type AnyTime struct{}

// Match implements sqlmock.Argument
func (AnyTime) Match(v driver.Value) bool {
	_, ok := v.(time.Time)
	return ok
}

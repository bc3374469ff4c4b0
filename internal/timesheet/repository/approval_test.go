package repository

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worktally/worktally-backend/pkg/errors"
	"github.com/worktally/worktally-backend/pkg/testutil"
)

const testAdminID = "c1b2c3d4-0000-0000-0000-000000000003"

var approvalCols = []string{"user_id", "approval", "decided_by", "tenant_id", "created_at", "updated_at"}

func TestGetApprovalByUserID(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewApprovalRepository(db)

	now := time.Now()

	testutil.ExpectTenantTx(mock, testTenantID)
	mock.ExpectQuery(regexp.QuoteMeta("FROM payroll_approvals")).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows(approvalCols).
			AddRow(testUserID, ApprovalApproved, testAdminID, testTenantID, now, now))
	mock.ExpectCommit()

	approval, err := repo.GetByUserID(tenantCtx(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, ApprovalApproved, approval.Approval)
	require.NotNil(t, approval.DecidedBy)
	assert.Equal(t, testAdminID, *approval.DecidedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetApprovalByUserIDNotFound(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewApprovalRepository(db)

	testutil.ExpectTenantTx(mock, testTenantID)
	mock.ExpectQuery(regexp.QuoteMeta("FROM payroll_approvals")).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows(approvalCols))
	mock.ExpectRollback()

	_, err := repo.GetByUserID(tenantCtx(), testUserID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertApproval(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewApprovalRepository(db)

	now := time.Now()

	testutil.ExpectTenantTx(mock, testTenantID)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payroll_approvals")).
		WithArgs(testUserID, ApprovalRejected, testAdminID).
		WillReturnRows(sqlmock.NewRows(approvalCols).
			AddRow(testUserID, ApprovalRejected, testAdminID, testTenantID, now, now))
	mock.ExpectCommit()

	approval, err := repo.Upsert(tenantCtx(), testUserID, ApprovalRejected, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, ApprovalRejected, approval.Approval)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worktally/worktally-backend/internal/timesheet/repository"
	"github.com/worktally/worktally-backend/internal/timesheet/service"
	"github.com/worktally/worktally-backend/pkg/httputil"
	"github.com/worktally/worktally-backend/pkg/tenant"
	"github.com/worktally/worktally-backend/pkg/testutil"
)

const (
	testTenantID = "a1b2c3d4-0000-0000-0000-000000000001"
	testUserID   = "b1b2c3d4-0000-0000-0000-000000000002"
	otherUserID  = "c1b2c3d4-0000-0000-0000-000000000003"
)

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock := testutil.NewMockDB(t)
	records := repository.NewTimeRecordRepository(db)
	approvals := repository.NewApprovalRepository(db)
	flags := repository.NewFlagRepository(db)

	dhaka, err := time.LoadLocation("Asia/Dhaka")
	require.NoError(t, err)

	log := testutil.NewTestLogger()
	svc := service.New(records, approvals, flags, nil, dhaka, 31, log)
	return NewHandler(svc, log), mock
}

func doRequest(h *Handler, req *http.Request, userID, role string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		h.RegisterRoutes(r)
	})

	ctx := httputil.WithUserContext(req.Context(), userID, role)
	ctx = tenant.WithTenantID(ctx, testTenantID)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func TestGetTimesheet(t *testing.T) {
	h, mock := newTestHandler(t)

	sessionStart := time.Date(2025, 6, 1, 4, 0, 0, 0, time.UTC)
	sessionEnd := sessionStart.Add(time.Hour)

	testutil.ExpectTenantTx(mock, testTenantID)
	mock.ExpectQuery(regexp.QuoteMeta("FROM time_records")).
		WithArgs(testUserID, testutil.AnyTime{}, testutil.AnyTime{}).
		WillReturnRows(sqlmock.NewRows([]string{
			"serial_id", "task_id", "project_id", "task_start", "task_end",
			"duration", "work_date", "session_payment", "payment_status",
			"tenant_id", "user_id", "created_at", "updated_at",
		}).AddRow(
			int64(1), int64(10), nil, sessionStart, sessionEnd,
			nil, nil, 10.0, "pending",
			testTenantID, testUserID, sessionStart, sessionStart,
		))
	mock.ExpectCommit()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/timesheet?start=2025-06-01&end=2025-06-02", nil)
	rec := doRequest(h, req, testUserID, "member")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool                  `json:"success"`
		Data    service.TimesheetView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "2025-06-01", resp.Data.From)
	assert.Equal(t, "2025-06-02", resp.Data.To)
	require.Len(t, resp.Data.Days, 1)
	assert.Equal(t, int64(3600), resp.Data.TotalSeconds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTimesheetRejectsOtherUserForMembers(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/timesheet?user_id="+otherUserID, nil)
	rec := doRequest(h, req, testUserID, "member")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetTimesheetRejectsBadRange(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/timesheet?start=June+1st", nil)
	rec := doRequest(h, req, testUserID, "member")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPayrollWithholdsFiguresWithoutApproval(t *testing.T) {
	h, mock := newTestHandler(t)

	// No approval row at all means the gate is still undecided.
	testutil.ExpectTenantTx(mock, testTenantID)
	mock.ExpectQuery(regexp.QuoteMeta("FROM payroll_approvals")).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "approval", "decided_by", "tenant_id", "created_at", "updated_at"}))
	mock.ExpectRollback()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/timesheet/payroll", nil)
	rec := doRequest(h, req, testUserID, "member")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data service.PayrollView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, repository.ApprovalNone, resp.Data.Approval)
	assert.NotEmpty(t, resp.Data.Notice)
	assert.Nil(t, resp.Data.Timesheet)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPayrollApproved(t *testing.T) {
	h, mock := newTestHandler(t)

	now := time.Now()
	sessionStart := time.Date(2025, 6, 1, 4, 0, 0, 0, time.UTC)
	sessionEnd := sessionStart.Add(2 * time.Hour)

	testutil.ExpectTenantTx(mock, testTenantID)
	mock.ExpectQuery(regexp.QuoteMeta("FROM payroll_approvals")).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "approval", "decided_by", "tenant_id", "created_at", "updated_at"}).
			AddRow(testUserID, repository.ApprovalApproved, otherUserID, testTenantID, now, now))
	mock.ExpectCommit()

	testutil.ExpectTenantTx(mock, testTenantID)
	mock.ExpectQuery(regexp.QuoteMeta("FROM time_records")).
		WithArgs(testUserID, "pending").
		WillReturnRows(sqlmock.NewRows([]string{
			"serial_id", "task_id", "project_id", "task_start", "task_end",
			"duration", "work_date", "session_payment", "payment_status",
			"tenant_id", "user_id", "created_at", "updated_at",
		}).AddRow(
			int64(1), int64(10), nil, sessionStart, sessionEnd,
			nil, nil, 25.0, "pending",
			testTenantID, testUserID, sessionStart, sessionStart,
		))
	mock.ExpectCommit()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/timesheet/payroll", nil)
	rec := doRequest(h, req, testUserID, "member")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data service.PayrollView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, repository.ApprovalApproved, resp.Data.Approval)
	require.NotNil(t, resp.Data.Timesheet)
	assert.Equal(t, int64(7200), resp.Data.Timesheet.TotalSeconds)
	assert.Equal(t, 25.0, resp.Data.Timesheet.TotalPayment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreviewEdits(t *testing.T) {
	h, _ := newTestHandler(t)

	body := map[string]interface{}{
		"items": []map[string]interface{}{
			{
				"serial_id": 7,
				"task_id":   42,
				"new": map[string]interface{}{
					"startISO": "2025-06-01T10:00:00Z",
					"endISO":   "2025-06-01T11:01:01Z",
					"seconds":  999,
				},
			},
		},
	}
	buf, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/timesheet/edits/preview", bytes.NewReader(buf))
	rec := doRequest(h, req, testUserID, "member")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Rows []service.PreviewRow `json:"rows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Rows, 1)
	assert.Equal(t, "1h 01m 01s", resp.Data.Rows[0].Elapsed)
}

func TestPreviewEditsRejectsMissingSeconds(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"items":[{"serial_id":7,"task_id":42,"new":{"startISO":"2025-06-01T10:00:00Z","endISO":"2025-06-01T11:01:01Z"}}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/timesheet/edits/preview", bytes.NewReader([]byte(body)))
	rec := doRequest(h, req, testUserID, "member")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewEditsRejectsEmptyBatch(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/timesheet/edits/preview", bytes.NewReader([]byte(`{"items":[]}`)))
	rec := doRequest(h, req, testUserID, "member")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplyEditsRejectsOtherUserForMembers(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"user_id":"` + otherUserID + `","changes":[{"serial_id":1,"task_id":10,"new":{"startISO":"2025-06-01T10:00:00Z","endISO":"2025-06-01T11:00:00Z","seconds":3600}}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/timesheet/edits/apply", bytes.NewReader([]byte(body)))
	rec := doRequest(h, req, testUserID, "member")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCheckBusy(t *testing.T) {
	h, mock := newTestHandler(t)

	testutil.ExpectTenantTx(mock, testTenantID)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT serial_id")).
		WillReturnRows(sqlmock.NewRows([]string{"serial_id"}).AddRow(2))
	mock.ExpectCommit()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/timesheet/tasks/busy-check", bytes.NewReader([]byte(`{"serial_ids":[1,2]}`)))
	rec := doRequest(h, req, testUserID, "member")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data service.BusyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.AnyBusy)
	assert.Equal(t, []int64{2}, resp.Data.BusySerials)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckBusyNoneRunning(t *testing.T) {
	h, mock := newTestHandler(t)

	testutil.ExpectTenantTx(mock, testTenantID)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT serial_id")).
		WillReturnRows(sqlmock.NewRows([]string{"serial_id"}))
	mock.ExpectCommit()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/timesheet/tasks/busy-check", bytes.NewReader([]byte(`{"serial_ids":[1,2]}`)))
	rec := doRequest(h, req, testUserID, "member")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"busy_serials":[]`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlagTask(t *testing.T) {
	h, mock := newTestHandler(t)

	testutil.ExpectTenantTx(mock, testTenantID)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE task_flags")).
		WithArgs(testUserID, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO task_flags")).
		WithArgs(testUserID, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/timesheet/tasks/42/flag", bytes.NewReader([]byte(`{"flagger":1}`)))
	rec := doRequest(h, req, testUserID, "member")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlagTaskRejectsBadFlagger(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/timesheet/tasks/42/flag", bytes.NewReader([]byte(`{"flagger":2}`)))
	rec := doRequest(h, req, testUserID, "member")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPutApprovalRequiresAdmin(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/timesheet/approval/"+otherUserID, bytes.NewReader([]byte(`{"approval":1}`)))
	rec := doRequest(h, req, testUserID, "member")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPutApproval(t *testing.T) {
	h, mock := newTestHandler(t)

	now := time.Now()
	testutil.ExpectTenantTx(mock, testTenantID)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payroll_approvals")).
		WithArgs(otherUserID, repository.ApprovalApproved, testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "approval", "decided_by", "tenant_id", "created_at", "updated_at"}).
			AddRow(otherUserID, repository.ApprovalApproved, testUserID, testTenantID, now, now))
	mock.ExpectCommit()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/timesheet/approval/"+otherUserID, bytes.NewReader([]byte(`{"approval":1}`)))
	rec := doRequest(h, req, testUserID, "admin")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data repository.PayrollApproval `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, repository.ApprovalApproved, resp.Data.Approval)
	assert.NoError(t, mock.ExpectationsWereMet())
}

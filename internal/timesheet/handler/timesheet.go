package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/worktally/worktally-backend/internal/auth"
	"github.com/worktally/worktally-backend/internal/timesheet/service"
	"github.com/worktally/worktally-backend/pkg/errors"
	"github.com/worktally/worktally-backend/pkg/httputil"
	"github.com/worktally/worktally-backend/pkg/logger"
)

// Handler handles timesheet HTTP requests
type Handler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewHandler creates a new timesheet handler
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{
		service: svc,
		logger:  log.WithComponent("timesheet-handler"),
	}
}

// RegisterRoutes registers the timesheet routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/timesheet", func(r chi.Router) {
		r.Get("/", h.GetTimesheet)
		r.Post("/payroll", h.GetPayroll)

		r.Route("/approval/{userID}", func(r chi.Router) {
			r.Get("/", h.GetApproval)
			r.With(auth.RequireAdmin).Put("/", h.PutApproval)
			r.With(auth.RequireAdmin).Post("/reject", h.RejectApproval)
		})

		r.Route("/edits", func(r chi.Router) {
			r.Post("/apply", h.ApplyEdits)
			r.Post("/preview", h.PreviewEdits)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/busy-check", h.CheckBusy)
			r.Post("/{taskID}/flag", h.FlagTask)
		})
	})
}

// targetUser resolves which user's data the request addresses. Non-admin
// callers may only address themselves.
func targetUser(r *http.Request, requested string) (string, error) {
	caller := httputil.GetUserID(r.Context())
	if requested == "" || requested == caller {
		return caller, nil
	}
	if httputil.GetUserRole(r.Context()) != "admin" {
		return "", errors.Forbidden("cannot access another user's timesheet")
	}
	return requested, nil
}

// GetTimesheet returns the per-day aggregation of a user's sessions over a
// date range. Defaults to the caller and the configured trailing window.
// GET /api/v1/timesheet?user_id=&start=&end=
func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	userID, err := targetUser(r, r.URL.Query().Get("user_id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	view, err := h.service.Timesheet(r.Context(), userID, r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, view)
}

type payrollRequest struct {
	UserID string `json:"user_id"`
}

// GetPayroll returns every still-pending session of a user bucketed by day,
// for payroll submission. Requires an approved payroll gate.
// POST /api/v1/timesheet/payroll
func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	var req payrollRequest
	if r.ContentLength > 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
	}

	userID, err := targetUser(r, req.UserID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	view, err := h.service.Payroll(r.Context(), userID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, view)
}

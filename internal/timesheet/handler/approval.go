package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/worktally/worktally-backend/pkg/httputil"
)

type setApprovalRequest struct {
	Approval *int `json:"approval" validate:"required"`
}

// GetApproval returns a user's payroll gate.
// GET /api/v1/timesheet/approval/{userID}
func (h *Handler) GetApproval(w http.ResponseWriter, r *http.Request) {
	userID, err := targetUser(r, chi.URLParam(r, "userID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	approval, err := h.service.GetApproval(r.Context(), userID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, approval)
}

// PutApproval sets a user's payroll gate. Admin only.
// PUT /api/v1/timesheet/approval/{userID}
func (h *Handler) PutApproval(w http.ResponseWriter, r *http.Request) {
	var req setApprovalRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	userID := chi.URLParam(r, "userID")
	decidedBy := httputil.GetUserID(r.Context())

	approval, err := h.service.SetApproval(r.Context(), userID, *req.Approval, decidedBy)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, approval)
}

// RejectApproval forces a user's payroll gate to rejected. Admin only.
// POST /api/v1/timesheet/approval/{userID}/reject
func (h *Handler) RejectApproval(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	decidedBy := httputil.GetUserID(r.Context())

	approval, err := h.service.RejectApproval(r.Context(), userID, decidedBy)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, approval)
}

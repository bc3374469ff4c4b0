package handler

import (
	"net/http"

	"github.com/worktally/worktally-backend/internal/timesheet/service"
	"github.com/worktally/worktally-backend/pkg/httputil"
)

type applyEditsRequest struct {
	UserID  string               `json:"user_id"`
	Changes []service.EditChange `json:"changes" validate:"required,min=1,dive"`
}

type previewEditsRequest struct {
	Items []service.EditChange `json:"items" validate:"required,min=1,dive"`
}

type previewEditsResponse struct {
	Rows []service.PreviewRow `json:"rows"`
}

type busyCheckRequest struct {
	SerialIDs []int64 `json:"serial_ids" validate:"required,min=1"`
}

// ApplyEdits commits a batch of span corrections atomically.
// POST /api/v1/timesheet/edits/apply
func (h *Handler) ApplyEdits(w http.ResponseWriter, r *http.Request) {
	var req applyEditsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	userID, err := targetUser(r, req.UserID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.ApplyEdits(r.Context(), userID, httputil.GetUserID(r.Context()), req.Changes)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// PreviewEdits renders a batch as it would appear after committing,
// without writing anything.
// POST /api/v1/timesheet/edits/preview
func (h *Handler) PreviewEdits(w http.ResponseWriter, r *http.Request) {
	var req previewEditsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	rows, err := h.service.PreviewEdits(req.Items)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, previewEditsResponse{Rows: rows})
}

// CheckBusy reports which of the given records belong to running sessions.
// POST /api/v1/timesheet/tasks/busy-check
func (h *Handler) CheckBusy(w http.ResponseWriter, r *http.Request) {
	var req busyCheckRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.CheckBusy(r.Context(), req.SerialIDs)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

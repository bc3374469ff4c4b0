package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/worktally/worktally-backend/pkg/errors"
	"github.com/worktally/worktally-backend/pkg/httputil"
)

type flagTaskRequest struct {
	Flagger *int `json:"flagger" validate:"required,min=0,max=1"`
}

type flagTaskResponse struct {
	TaskID  int64 `json:"task_id"`
	Flagged bool  `json:"flagged"`
}

// FlagTask marks or unmarks a task as being edited by the caller. Setting
// the flag clears any other task the caller had flagged.
// POST /api/v1/timesheet/tasks/{taskID}/flag
func (h *Handler) FlagTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(chi.URLParam(r, "taskID"), 10, 64)
	if err != nil {
		httputil.Error(w, errors.Validation(map[string]string{
			"task_id": "must be an integer",
		}))
		return
	}

	var req flagTaskRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	userID := httputil.GetUserID(r.Context())

	if err := h.service.SetTaskFlag(r.Context(), userID, taskID, *req.Flagger); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, flagTaskResponse{
		TaskID:  taskID,
		Flagged: *req.Flagger == 1,
	})
}

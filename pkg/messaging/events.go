package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventEditsApplied     = "timesheet.edits.applied"
	EventApprovalUpdated  = "timesheet.approval.updated"
	EventApprovalRejected = "timesheet.approval.rejected"
	EventTaskFlagged      = "timesheet.task.flagged"
	EventTaskUnflagged    = "timesheet.task.unflagged"
)

// Exchange names
const (
	ExchangeTimesheetEvents = "timesheet.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// EditsAppliedEvent is published when a reconciliation batch commits
type EditsAppliedEvent struct {
	TenantID  string  `json:"tenant_id"`
	UserID    string  `json:"user_id"`
	SerialIDs []int64 `json:"serial_ids"`
	AppliedBy string  `json:"applied_by"`
}

// ApprovalUpdatedEvent is published when an admin changes a payroll approval
type ApprovalUpdatedEvent struct {
	TenantID  string `json:"tenant_id"`
	UserID    string `json:"user_id"`
	Approval  int    `json:"approval"`
	DecidedBy string `json:"decided_by"`
}

// ApprovalRejectedEvent is published when an admin forces the rejected state
type ApprovalRejectedEvent struct {
	TenantID  string `json:"tenant_id"`
	UserID    string `json:"user_id"`
	DecidedBy string `json:"decided_by"`
}

// TaskFlaggedEvent is published when a task is marked as being edited
type TaskFlaggedEvent struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	TaskID   int64  `json:"task_id"`
}

// TaskUnflaggedEvent is published when a task's edit marker is cleared
type TaskUnflaggedEvent struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	TaskID   int64  `json:"task_id"`
}

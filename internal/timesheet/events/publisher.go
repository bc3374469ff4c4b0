package events

import (
	"context"

	"github.com/worktally/worktally-backend/pkg/logger"
	"github.com/worktally/worktally-backend/pkg/messaging"
)

// TimesheetEventPublisher publishes timesheet domain events. All publishes
// are best effort: a broker outage is logged and the HTTP operation still
// succeeds, because the database write is the source of truth.
type TimesheetEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewTimesheetEventPublisher creates a new timesheet event publisher
func NewTimesheetEventPublisher(publisher *messaging.Publisher, log *logger.Logger) *TimesheetEventPublisher {
	return &TimesheetEventPublisher{
		publisher: publisher,
		logger:    log.WithComponent("timesheet-events"),
	}
}

// PublishEditsApplied emits an event after a reconciliation batch commits.
func (p *TimesheetEventPublisher) PublishEditsApplied(ctx context.Context, tenantID, userID string, serialIDs []int64, appliedBy string) {
	p.publish(ctx, messaging.EventEditsApplied, messaging.EditsAppliedEvent{
		TenantID:  tenantID,
		UserID:    userID,
		SerialIDs: serialIDs,
		AppliedBy: appliedBy,
	})
}

// PublishApprovalUpdated emits an event after a payroll approval decision.
func (p *TimesheetEventPublisher) PublishApprovalUpdated(ctx context.Context, tenantID, userID string, approval int, decidedBy string) {
	p.publish(ctx, messaging.EventApprovalUpdated, messaging.ApprovalUpdatedEvent{
		TenantID:  tenantID,
		UserID:    userID,
		Approval:  approval,
		DecidedBy: decidedBy,
	})
}

// PublishApprovalRejected emits an event after a payroll rejection.
func (p *TimesheetEventPublisher) PublishApprovalRejected(ctx context.Context, tenantID, userID, decidedBy string) {
	p.publish(ctx, messaging.EventApprovalRejected, messaging.ApprovalRejectedEvent{
		TenantID:  tenantID,
		UserID:    userID,
		DecidedBy: decidedBy,
	})
}

// PublishTaskFlagged emits an event when a task enters editing.
func (p *TimesheetEventPublisher) PublishTaskFlagged(ctx context.Context, tenantID, userID string, taskID int64) {
	p.publish(ctx, messaging.EventTaskFlagged, messaging.TaskFlaggedEvent{
		TenantID: tenantID,
		UserID:   userID,
		TaskID:   taskID,
	})
}

// PublishTaskUnflagged emits an event when a task leaves editing.
func (p *TimesheetEventPublisher) PublishTaskUnflagged(ctx context.Context, tenantID, userID string, taskID int64) {
	p.publish(ctx, messaging.EventTaskUnflagged, messaging.TaskUnflaggedEvent{
		TenantID: tenantID,
		UserID:   userID,
		TaskID:   taskID,
	})
}

func (p *TimesheetEventPublisher) publish(ctx context.Context, eventType string, data interface{}) {
	if p == nil || p.publisher == nil {
		return
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.WithError(err).Error().Str("event_type", eventType).Msg("Failed to publish event")
	}
}

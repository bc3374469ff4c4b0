package service

import (
	"time"

	"github.com/worktally/worktally-backend/internal/timesheet/events"
	"github.com/worktally/worktally-backend/internal/timesheet/repository"
	"github.com/worktally/worktally-backend/pkg/logger"
)

// Service implements timesheet aggregation, payroll gating, edit
// reconciliation and flag handling. It holds no per-request state; every
// operation derives its tenant and caller from the request context.
type Service struct {
	records    *repository.TimeRecordRepository
	approvals  *repository.ApprovalRepository
	flags      *repository.FlagRepository
	events     *events.TimesheetEventPublisher
	loc        *time.Location
	windowDays int
	logger     *logger.Logger
}

// New creates a new timesheet service. loc is the tenant-facing timezone
// used for day bucketing and display formatting; windowDays is the default
// aggregation window when the caller gives no explicit range.
func New(
	records *repository.TimeRecordRepository,
	approvals *repository.ApprovalRepository,
	flags *repository.FlagRepository,
	publisher *events.TimesheetEventPublisher,
	loc *time.Location,
	windowDays int,
	log *logger.Logger,
) *Service {
	return &Service{
		records:    records,
		approvals:  approvals,
		flags:      flags,
		events:     publisher,
		loc:        loc,
		windowDays: windowDays,
		logger:     log.WithComponent("timesheet-service"),
	}
}

package service

import (
	"context"
	"sort"
	"time"

	"github.com/worktally/worktally-backend/internal/timesheet/repository"
	"github.com/worktally/worktally-backend/pkg/errors"
)

// SessionRow is one record rendered for the timesheet view.
type SessionRow struct {
	SerialID      int64   `json:"serial_id"`
	TaskID        int64   `json:"task_id"`
	ProjectID     *int64  `json:"project_id,omitempty"`
	Start         string  `json:"start,omitempty"`
	End           string  `json:"end,omitempty"`
	Seconds       int64   `json:"seconds"`
	Elapsed       string  `json:"elapsed"`
	Payment       float64 `json:"payment"`
	PaymentStatus string  `json:"payment_status"`
	Busy          bool    `json:"busy"`
}

// DayBucket groups a user's sessions under one calendar day with totals.
type DayBucket struct {
	Date         string       `json:"date"`
	Sessions     []SessionRow `json:"sessions"`
	TotalSeconds int64        `json:"total_seconds"`
	TotalHours   float64      `json:"total_hours"`
	TotalElapsed string       `json:"total_elapsed"`
	TotalPayment float64      `json:"total_payment"`
}

// TimesheetView is the aggregated response for a user over a range.
type TimesheetView struct {
	UserID       string      `json:"user_id"`
	From         string      `json:"from"`
	To           string      `json:"to"`
	Days         []DayBucket `json:"days"`
	TotalSeconds int64       `json:"total_seconds"`
	TotalHours   float64     `json:"total_hours"`
	TotalElapsed string      `json:"total_elapsed"`
	TotalPayment float64     `json:"total_payment"`
}

// Timesheet aggregates a user's records over [from, to] into per-day
// buckets. Bounds are YYYY-MM-DD calendar days in the service timezone,
// inclusive on both ends; empty bounds default to the configured window
// ending today.
func (s *Service) Timesheet(ctx context.Context, userID, from, to string) (*TimesheetView, error) {
	now := time.Now().In(s.loc)

	end := now
	if to != "" {
		parsed, err := time.ParseInLocation("2006-01-02", to, s.loc)
		if err != nil {
			return nil, errors.Validation(map[string]string{"to": "must be a YYYY-MM-DD date"})
		}
		end = parsed
	}
	start := end.AddDate(0, 0, -(s.windowDays - 1))
	if from != "" {
		parsed, err := time.ParseInLocation("2006-01-02", from, s.loc)
		if err != nil {
			return nil, errors.Validation(map[string]string{"from": "must be a YYYY-MM-DD date"})
		}
		start = parsed
	}

	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.loc)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, 1)

	if !startDay.Before(endDay) {
		return nil, errors.Validation(map[string]string{
			"range": "from must not be after to",
		})
	}

	records, err := s.records.ListForUserInRange(ctx, userID, startDay, endDay)
	if err != nil {
		return nil, err
	}

	view := s.buildView(userID, records, false)
	view.From = DayKey(startDay, s.loc)
	view.To = DayKey(endDay.AddDate(0, 0, -1), s.loc)
	return view, nil
}

// PayrollView is the payroll-submission response. When the approval gate is
// not in the approved state the figures are withheld and Notice explains
// why; no aggregation runs at all in that case.
type PayrollView struct {
	Approval  int            `json:"approval"`
	Notice    string         `json:"notice,omitempty"`
	Timesheet *TimesheetView `json:"timesheet,omitempty"`
}

// Payroll aggregates every record of the user still awaiting payment, for
// submission. The approval gate is consulted first; a missing row counts as
// the undecided state. Sessions with no payment value contribute nothing
// and are dropped before accumulation.
func (s *Service) Payroll(ctx context.Context, userID string) (*PayrollView, error) {
	approval, err := s.approvals.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	state := repository.ApprovalNone
	if approval != nil {
		state = approval.Approval
	}

	switch state {
	case repository.ApprovalRejected:
		return &PayrollView{
			Approval: state,
			Notice:   "payroll submission was rejected by an admin",
		}, nil
	case repository.ApprovalApproved:
	default:
		return &PayrollView{
			Approval: state,
			Notice:   "awaiting admin approval",
		}, nil
	}

	records, err := s.records.ListPendingForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := s.buildView(userID, records, true)
	if len(view.Days) > 0 {
		view.From = view.Days[0].Date
		view.To = view.Days[len(view.Days)-1].Date
	}
	return &PayrollView{Approval: state, Timesheet: view}, nil
}

// buildView buckets records by calendar day in the service timezone.
// Records without any anchor instant are silently skipped; in payroll mode
// unpaid sessions are skipped too, before any total accumulates.
func (s *Service) buildView(userID string, records []*repository.TimeRecord, payrollMode bool) *TimesheetView {
	buckets := make(map[string]*DayBucket)

	for _, rec := range records {
		anchor, ok := AnchorInstant(rec)
		if !ok {
			continue
		}

		var payment float64
		if rec.SessionPayment != nil {
			payment = *rec.SessionPayment
		}
		if payrollMode && payment == 0 {
			continue
		}

		key := DayKey(anchor, s.loc)
		bucket, ok := buckets[key]
		if !ok {
			bucket = &DayBucket{Date: key}
			buckets[key] = bucket
		}

		secs := ComputeSeconds(rec)
		row := SessionRow{
			SerialID:      rec.SerialID,
			TaskID:        rec.TaskID,
			ProjectID:     rec.ProjectID,
			Seconds:       secs,
			Elapsed:       FormatHMS(secs),
			Payment:       payment,
			PaymentStatus: rec.PaymentStatus,
			Busy:          rec.Busy(),
		}
		if rec.TaskStart != nil {
			row.Start = DisplayTime(*rec.TaskStart, s.loc)
		}
		if rec.TaskEnd != nil {
			row.End = DisplayTime(*rec.TaskEnd, s.loc)
		}

		bucket.Sessions = append(bucket.Sessions, row)
		bucket.TotalSeconds += secs
		bucket.TotalPayment += payment
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	view := &TimesheetView{
		UserID: userID,
		Days:   make([]DayBucket, 0, len(keys)),
	}
	for _, key := range keys {
		bucket := buckets[key]
		bucket.TotalHours = RoundHours(bucket.TotalSeconds)
		bucket.TotalElapsed = FormatHMS(bucket.TotalSeconds)
		view.Days = append(view.Days, *bucket)
		view.TotalSeconds += bucket.TotalSeconds
		view.TotalPayment += bucket.TotalPayment
	}
	view.TotalHours = RoundHours(view.TotalSeconds)
	view.TotalElapsed = FormatHMS(view.TotalSeconds)

	return view
}

package service

import (
	"fmt"
	"math"
	"time"

	"github.com/worktally/worktally-backend/internal/timesheet/repository"
)

// Raw duration values arrive in mixed historical units. The capture pipeline
// stored milliseconds for a while, seconds before that, and minutes in the
// oldest rows, without a unit column. The magnitude bands below recover the
// unit: a real session is shorter than 1000 hours, so anything at or above
// 3.6e6 can only be milliseconds, and anything below 3600 that survived as
// a standalone duration is minutes.
const (
	millisecondFloor = 3_600_000
	secondsFloor     = 3_600
)

// ComputeSeconds derives the worked seconds of a record. A chronologically
// ordered start/end pair wins over any stored duration; an inverted or
// zero-length pair is treated as absent and the raw duration is interpreted
// through the magnitude heuristic instead. Records with neither yield zero
// rather than an error so one malformed row cannot sink a whole aggregation.
func ComputeSeconds(r *repository.TimeRecord) int64 {
	if r.TaskStart != nil && r.TaskEnd != nil && r.TaskEnd.After(*r.TaskStart) {
		return int64(math.Floor(r.TaskEnd.Sub(*r.TaskStart).Seconds()))
	}

	if r.Duration != nil {
		return durationToSeconds(*r.Duration)
	}

	return 0
}

func durationToSeconds(d float64) int64 {
	if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}

	var secs float64
	switch {
	case d >= millisecondFloor:
		secs = d / 1000
	case d >= secondsFloor:
		secs = d
	default:
		secs = d * 60
	}

	return int64(math.Floor(secs))
}

// AnchorInstant returns the instant a record is bucketed under: the session
// start when present, then the session end, then the legacy work date. The
// second return is false when the record has no usable anchor at all.
func AnchorInstant(r *repository.TimeRecord) (time.Time, bool) {
	switch {
	case r.TaskStart != nil:
		return *r.TaskStart, true
	case r.TaskEnd != nil:
		return *r.TaskEnd, true
	case r.WorkDate != nil:
		return *r.WorkDate, true
	}
	return time.Time{}, false
}

// DayKey renders an instant as the calendar day it falls on in loc,
// formatted YYYY-MM-DD. Buckets keyed this way sort chronologically as
// plain strings.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// DisplayTime renders an instant for human-facing rows, in loc.
func DisplayTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02/01/2006, 15:04:05")
}

// FormatHMS renders a second count as "1h 01m 01s". Minutes and seconds are
// zero padded, hours are not.
func FormatHMS(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
}

// RoundHours converts seconds to decimal hours rounded to two places.
func RoundHours(seconds int64) float64 {
	return math.Round(float64(seconds)/3600*100) / 100
}

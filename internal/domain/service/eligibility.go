package service

import (
	"time"

	"github.com/ci-events/notify-server/internal/domain/entity"
)

// ReminderDue reports whether a reminder with the given hour offset is due.
// Both operands are normalized to the canonical zone before comparing, so
// the result does not depend on the server's locale.
//
// Multi-day events have no single start clock-time: the target is midnight
// of the start date minus the offset. Single-day events anchor the target at
// the first segment's clock-time on the start date.
func ReminderDue(now time.Time, event entity.Event, offsetHours int, zone *time.Location) bool {
	now = now.In(zone)
	start := event.StartDate.In(zone)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, zone)
	offset := time.Duration(offsetHours) * time.Hour

	if event.IsMultiDay {
		return !now.Before(day.Add(-offset))
	}

	if len(event.Segments) == 0 {
		return false
	}
	first := event.Segments[0].StartTime.In(zone)
	startAt := day.Add(time.Duration(first.Hour())*time.Hour + time.Duration(first.Minute())*time.Minute)
	return !now.Before(startAt.Add(-offset))
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's day in t's location.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

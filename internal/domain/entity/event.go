package entity

import (
	"slices"
	"time"

	"github.com/lib/pq"
)

type Event struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Title      string    `gorm:"not null"`
	OwnerID    string    `gorm:"type:uuid"`
	StartDate  time.Time `gorm:"not null"`
	IsMultiDay bool
	District   string
	Hidden     bool           `gorm:"not null;default:false"`
	Cancelled  bool           `gorm:"not null;default:false"`
	Notified   bool           `gorm:"not null;default:false"`
	OrgIDs     pq.StringArray `gorm:"type:text[]"`

	Segments []EventSegment `gorm:"foreignKey:EventID"`
}

// EventSegment is a single time-of-day occurrence of an event.
// Single-day events derive their start clock-time from the first segment.
type EventSegment struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	EventID    string `gorm:"not null;type:uuid;index"`
	Type       string
	StartTime  time.Time `gorm:"not null"`
	EndTime    time.Time
	TeacherIDs pq.StringArray `gorm:"type:text[]"`
}

// TeacherIDs returns the union of every segment's teacher identifiers,
// deduplicated, with blank values excluded.
func (e *Event) TeacherIDs() []string {
	var ids []string
	for _, segment := range e.Segments {
		for _, id := range segment.TeacherIDs {
			if id == "" || slices.Contains(ids, id) {
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids
}

// StartedBefore reports whether the event's start date falls on a day
// before the given time, compared in that time's location.
func (e *Event) StartedBefore(t time.Time) bool {
	start := e.StartDate.In(t.Location())
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, t.Location())
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return startDay.Before(day)
}

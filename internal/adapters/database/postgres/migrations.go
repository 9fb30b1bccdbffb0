package postgres

import "github.com/ci-events/notify-server/internal/domain/entity"

// Migrations is a list of all gorm migrations for the database.
var Migrations = []interface{}{
	&entity.User{},
	&entity.Event{},
	&entity.EventSegment{},
	&entity.Alert{},
	&entity.ReminderSchedule{},
	&entity.Request{},
	&entity.WAUser{},
	&entity.TwilioLog{},
	&entity.ConfigFlag{},
}

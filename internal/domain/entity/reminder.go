package entity

import "time"

// ReminderSchedule is a due-date rule tied to one event and one user.
// Sent is terminal: once true the row is never re-evaluated.
type ReminderSchedule struct {
	ID            string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CreatedAt     time.Time
	EventID       string `gorm:"not null;type:uuid;index"`
	UserID        string `gorm:"not null;type:uuid;index"`
	RemindInHours int    `gorm:"not null"`
	Sent          bool   `gorm:"not null;default:false"`

	Event Event `gorm:"foreignKey:EventID"`
	User  User  `gorm:"foreignKey:UserID"`
}

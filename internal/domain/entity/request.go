package entity

import "time"

// Request is a user-submitted inquiry awaiting a response or admin triage.
// ToSend and AdminsNotified each transition true exactly once.
type Request struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CreatedAt      time.Time
	UserID         string `gorm:"not null;type:uuid;index"`
	Name           string
	Message        string
	ToSend         bool `gorm:"not null;default:false"`
	AdminsNotified *bool
	Sent           bool `gorm:"not null;default:false"`
	Viewed         bool `gorm:"not null;default:false"`

	User User `gorm:"foreignKey:UserID"`
}

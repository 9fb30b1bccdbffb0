package entity

import "time"

type AlertType string

const (
	AlertTypeSubscription AlertType = "subscription"
	AlertTypeReminder     AlertType = "reminder"
	AlertTypeResponse     AlertType = "response"
	AlertTypeAdmin        AlertType = "admin"
)

// Alert is the durable in-app record of a notification. Exactly one of
// EventID and RequestID is set, never both.
type Alert struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"not null"`
	UserID    string    `gorm:"not null;type:uuid;index"`
	Type      AlertType `gorm:"not null"`
	EventID   *string   `gorm:"type:uuid"`
	RequestID *string   `gorm:"type:uuid"`
	Title     string
	Viewed    bool `gorm:"not null;default:false"`

	Event   *Event   `gorm:"foreignKey:EventID"`
	Request *Request `gorm:"foreignKey:RequestID"`
}

package entity

import "time"

type WAUser struct {
	ID           string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CreatedAt    time.Time
	Name         string
	Phone        string `gorm:"not null"`
	Language     string `gorm:"not null;default:he"`
	IsSubscribed bool   `gorm:"not null;default:true"`
}

// TwilioLog keeps the raw Twilio result for every WhatsApp send attempt.
type TwilioLog struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CreatedAt  time.Time
	WAUserID   string `gorm:"type:uuid"`
	Trigger    string
	FromNumber string
	ToNumber   string
	Result     string
}

package entity

import (
	"time"

	"github.com/lib/pq"
)

type User struct {
	ID                   string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Name                 string
	FCMToken             string
	ReceiveNotifications bool           `gorm:"not null;default:true"`
	IsAdmin              bool           `gorm:"not null;default:false"`
	SubscribedTeachers   pq.StringArray `gorm:"type:text[]"`
	SubscribedOrgs       pq.StringArray `gorm:"type:text[]"`

	Alerts []Alert `gorm:"foreignKey:UserID"`
}

package postgres

import (
	"context"

	"github.com/ci-events/notify-server/internal/domain/entity"
	"gorm.io/gorm"
)

type WAUserStorage struct {
	db *gorm.DB
}

func NewWAUserStorage(db *gorm.DB) *WAUserStorage {
	return &WAUserStorage{
		db: db,
	}
}

// GetSubscribed returns WhatsApp users subscribed to the weekly digest.
func (s *WAUserStorage) GetSubscribed(ctx context.Context) ([]entity.WAUser, error) {
	var users []entity.WAUser
	err := s.db.WithContext(ctx).
		Where("is_subscribed = true").
		Find(&users).Error
	return users, err
}

type TwilioLogStorage struct {
	db *gorm.DB
}

func NewTwilioLogStorage(db *gorm.DB) *TwilioLogStorage {
	return &TwilioLogStorage{
		db: db,
	}
}

func (s *TwilioLogStorage) Create(ctx context.Context, log *entity.TwilioLog) error {
	return s.db.WithContext(ctx).Create(log).Error
}

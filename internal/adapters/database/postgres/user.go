package postgres

import (
	"context"

	"github.com/ci-events/notify-server/internal/domain/entity"
	"gorm.io/gorm"
)

type UserStorage struct {
	db *gorm.DB
}

func NewUserStorage(db *gorm.DB) *UserStorage {
	return &UserStorage{
		db: db,
	}
}

// GetNotifiable returns every user that opted in to notifications.
func (s *UserStorage) GetNotifiable(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	err := s.db.WithContext(ctx).
		Where("receive_notifications = true").
		Find(&users).Error
	return users, err
}

// GetAdmins returns notification-enabled administrator users.
func (s *UserStorage) GetAdmins(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	err := s.db.WithContext(ctx).
		Where("receive_notifications = true AND is_admin = true").
		Find(&users).Error
	return users, err
}

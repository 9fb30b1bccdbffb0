package postgres

import (
	"context"

	"github.com/ci-events/notify-server/internal/domain/entity"
	"gorm.io/gorm"
)

type AlertStorage struct {
	db *gorm.DB
}

func NewAlertStorage(db *gorm.DB) *AlertStorage {
	return &AlertStorage{
		db: db,
	}
}

func (s *AlertStorage) Create(ctx context.Context, alert *entity.Alert) error {
	return s.db.WithContext(ctx).Create(alert).Error
}

// CountUnviewed returns the number of alerts the user has not viewed yet.
func (s *AlertStorage) CountUnviewed(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&entity.Alert{}).
		Where("user_id = ? AND viewed = false", userID).
		Count(&count).Error
	return count, err
}

// GetAllWithRefs returns every alert with its referenced event and request
// loaded, for the cleanup pass.
func (s *AlertStorage) GetAllWithRefs(ctx context.Context) ([]entity.Alert, error) {
	var alerts []entity.Alert
	err := s.db.WithContext(ctx).
		Preload("Event").
		Preload("Request").
		Find(&alerts).Error
	return alerts, err
}

func (s *AlertStorage) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&entity.Alert{}).Error
}

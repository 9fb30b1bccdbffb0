package postgres

import (
	"context"

	"github.com/ci-events/notify-server/internal/domain/entity"
	"gorm.io/gorm"
)

type ConfigStorage struct {
	db *gorm.DB
}

func NewConfigStorage(db *gorm.DB) *ConfigStorage {
	return &ConfigStorage{
		db: db,
	}
}

// NotificationsEnabled reads the named kill-switch flag. A missing row or a
// failed read is an error, not a silent false.
func (s *ConfigStorage) NotificationsEnabled(ctx context.Context, title string) (bool, error) {
	var flag entity.ConfigFlag
	err := s.db.WithContext(ctx).Where("title = ?", title).First(&flag).Error
	if err != nil {
		return false, err
	}
	return flag.Flag, nil
}

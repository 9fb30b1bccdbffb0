package postgres

import (
	"context"
	"time"

	"github.com/ci-events/notify-server/internal/domain/entity"
	"gorm.io/gorm"
)

type EventStorage struct {
	db *gorm.DB
}

func NewEventStorage(db *gorm.DB) *EventStorage {
	return &EventStorage{
		db: db,
	}
}

// GetNewActive returns visible events starting on or after the given day
// that have not had subscription notifications sent yet.
func (s *EventStorage) GetNewActive(ctx context.Context, from time.Time) ([]entity.Event, error) {
	var events []entity.Event
	err := s.db.WithContext(ctx).
		Preload("Segments").
		Where("start_date >= ? AND hidden = false AND cancelled = false AND notified = false", from).
		Find(&events).Error
	return events, err
}

// GetBetween returns visible events with a start date inside [from, to].
func (s *EventStorage) GetBetween(ctx context.Context, from, to time.Time) ([]entity.Event, error) {
	var events []entity.Event
	err := s.db.WithContext(ctx).
		Where("start_date >= ? AND start_date <= ? AND hidden = false AND cancelled = false", from, to).
		Order("start_date").
		Find(&events).Error
	return events, err
}

// SetNotified marks the given events as notified in one bulk update.
func (s *EventStorage) SetNotified(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&entity.Event{}).
		Where("id IN ?", ids).
		Update("notified", true).Error
}

package postgres

import (
	"context"
	"time"

	"github.com/ci-events/notify-server/internal/domain/entity"
	"gorm.io/gorm"
)

type ReminderStorage struct {
	db *gorm.DB
}

func NewReminderStorage(db *gorm.DB) *ReminderStorage {
	return &ReminderStorage{
		db: db,
	}
}

// GetDueWindow returns unsent reminder schedules whose user opted in to
// notifications and whose event is visible and starts inside [from, to],
// with the event, its segments and the target user preloaded.
func (s *ReminderStorage) GetDueWindow(ctx context.Context, from, to time.Time) ([]entity.ReminderSchedule, error) {
	var reminders []entity.ReminderSchedule
	err := s.db.WithContext(ctx).
		Joins("JOIN events ON events.id = reminder_schedules.event_id").
		Joins("JOIN users ON users.id = reminder_schedules.user_id").
		Where("reminder_schedules.sent = false").
		Where("users.receive_notifications = true").
		Where("events.hidden = false AND events.cancelled = false").
		Where("events.start_date >= ? AND events.start_date <= ?", from, to).
		Preload("Event.Segments").
		Preload("User").
		Find(&reminders).Error
	return reminders, err
}

// SetSent marks the given reminder schedules as sent in one bulk update.
func (s *ReminderStorage) SetSent(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&entity.ReminderSchedule{}).
		Where("id IN ?", ids).
		Update("sent", true).Error
}

// DeleteForPastEvents removes reminder schedules whose event started before
// the given day and returns how many rows were deleted.
func (s *ReminderStorage) DeleteForPastEvents(ctx context.Context, before time.Time) (int64, error) {
	subquery := s.db.Model(&entity.Event{}).Select("id").Where("start_date < ?", before)
	res := s.db.WithContext(ctx).
		Where("event_id IN (?)", subquery).
		Delete(&entity.ReminderSchedule{})
	return res.RowsAffected, res.Error
}

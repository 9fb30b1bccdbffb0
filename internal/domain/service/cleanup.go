package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ci-events/notify-server/internal/domain/entity"
	"github.com/ci-events/notify-server/pkg/logger"
)

type cleanupAlertStorage interface {
	GetAllWithRefs(ctx context.Context) ([]entity.Alert, error)
	DeleteMany(ctx context.Context, ids []string) error
}

type cleanupReminderStorage interface {
	DeleteForPastEvents(ctx context.Context, before time.Time) (int64, error)
}

type CleanupService struct {
	alertStorage    cleanupAlertStorage
	reminderStorage cleanupReminderStorage

	zone   *time.Location
	logger *logger.Logger
}

func NewCleanupService(
	alertStorage cleanupAlertStorage,
	reminderStorage cleanupReminderStorage,
	zone *time.Location,
	logger *logger.Logger,
) *CleanupService {
	return &CleanupService{
		alertStorage:    alertStorage,
		reminderStorage: reminderStorage,
		zone:            zone,
		logger:          logger,
	}
}

// CleanupAlerts deletes alerts that are viewed, alerts whose request went
// back into the pending-response state, and alerts for events that already
// started.
func (s *CleanupService) CleanupAlerts(ctx context.Context) error {
	alerts, err := s.alertStorage.GetAllWithRefs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get alerts for cleanup: %w", err)
	}

	now := time.Now().In(s.zone)
	var ids []string
	for _, alert := range alerts {
		switch {
		case alert.Viewed:
			ids = append(ids, alert.ID)
		case alert.RequestID != nil && alert.Request != nil && alert.Request.ToSend:
			ids = append(ids, alert.ID)
		case alert.EventID != nil && alert.Event != nil && alert.Event.StartedBefore(now):
			ids = append(ids, alert.ID)
		}
	}
	if len(ids) == 0 {
		s.logger.Debug("no alerts to clean up")
		return nil
	}

	if err = s.alertStorage.DeleteMany(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete alerts: %w", err)
	}
	s.logger.Infof("cleaned up %d alerts", len(ids))
	return nil
}

// CleanupReminders deletes reminder schedules whose event started before
// today.
func (s *CleanupService) CleanupReminders(ctx context.Context) error {
	today := StartOfDay(time.Now().In(s.zone))
	deleted, err := s.reminderStorage.DeleteForPastEvents(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to delete past reminders: %w", err)
	}
	s.logger.Infof("cleaned up %d reminder schedules", deleted)
	return nil
}

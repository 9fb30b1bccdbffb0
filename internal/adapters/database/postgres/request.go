package postgres

import (
	"context"

	"github.com/ci-events/notify-server/internal/domain/entity"
	"gorm.io/gorm"
)

type RequestStorage struct {
	db *gorm.DB
}

func NewRequestStorage(db *gorm.DB) *RequestStorage {
	return &RequestStorage{
		db: db,
	}
}

// GetPendingResponses returns requests whose response is waiting to be sent
// to the requester, with the requester preloaded.
func (s *RequestStorage) GetPendingResponses(ctx context.Context) ([]entity.Request, error) {
	var requests []entity.Request
	err := s.db.WithContext(ctx).
		Where("to_send = true").
		Preload("User").
		Find(&requests).Error
	return requests, err
}

// GetUnseenByAdmins returns requests that administrators have not been
// notified about yet.
func (s *RequestStorage) GetUnseenByAdmins(ctx context.Context) ([]entity.Request, error) {
	var requests []entity.Request
	err := s.db.WithContext(ctx).
		Where("admins_notified IS NULL OR admins_notified = false").
		Find(&requests).Error
	return requests, err
}

// MarkResponded flips the response flags for the given requests in one bulk
// update: the response is sent, no longer pending, and unseen by the
// requester.
func (s *RequestStorage) MarkResponded(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&entity.Request{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"sent": true, "to_send": false, "viewed": false}).Error
}

// MarkAdminsNotified marks the given requests as triaged in one bulk update.
func (s *RequestStorage) MarkAdminsNotified(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&entity.Request{}).
		Where("id IN ?", ids).
		Update("admins_notified", true).Error
}

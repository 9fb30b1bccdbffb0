package service

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/ci-events/notify-server/internal/domain/entity"
	"github.com/ci-events/notify-server/pkg/logger"
)

type fakeCleanupAlertStorage struct {
	alerts  []entity.Alert
	deleted [][]string
}

func (f *fakeCleanupAlertStorage) GetAllWithRefs(_ context.Context) ([]entity.Alert, error) {
	return f.alerts, nil
}

func (f *fakeCleanupAlertStorage) DeleteMany(_ context.Context, ids []string) error {
	f.deleted = append(f.deleted, ids)
	return nil
}

type fakeCleanupReminderStorage struct {
	deleted int64
	before  time.Time
}

func (f *fakeCleanupReminderStorage) DeleteForPastEvents(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return f.deleted, nil
}

func strPtr(s string) *string { return &s }

func TestCleanupAlerts(t *testing.T) {
	now := time.Now().UTC()
	pastEvent := &entity.Event{ID: "past", StartDate: now.AddDate(0, 0, -2)}
	futureEvent := &entity.Event{ID: "future", StartDate: now.AddDate(0, 0, 2)}

	alerts := &fakeCleanupAlertStorage{
		alerts: []entity.Alert{
			{ID: "viewed", Viewed: true},
			{ID: "pending-request", RequestID: strPtr("req1"), Request: &entity.Request{ID: "req1", ToSend: true}},
			{ID: "settled-request", RequestID: strPtr("req2"), Request: &entity.Request{ID: "req2"}},
			{ID: "past-event", EventID: strPtr("past"), Event: pastEvent},
			{ID: "future-event", EventID: strPtr("future"), Event: futureEvent},
		},
	}
	service := NewCleanupService(alerts, &fakeCleanupReminderStorage{}, time.UTC, logger.Nop())

	if err := service.CleanupAlerts(context.Background()); err != nil {
		t.Fatalf("CleanupAlerts: %v", err)
	}

	if len(alerts.deleted) != 1 {
		t.Fatalf("expected one delete call, got %d", len(alerts.deleted))
	}
	deleted := alerts.deleted[0]
	for _, want := range []string{"viewed", "pending-request", "past-event"} {
		if !slices.Contains(deleted, want) {
			t.Fatalf("expected %s to be deleted, got %v", want, deleted)
		}
	}
	for _, keep := range []string{"settled-request", "future-event"} {
		if slices.Contains(deleted, keep) {
			t.Fatalf("%s must be kept, got %v", keep, deleted)
		}
	}
}

func TestCleanupAlerts_NothingToDo(t *testing.T) {
	alerts := &fakeCleanupAlertStorage{
		alerts: []entity.Alert{{ID: "keep", Viewed: false}},
	}
	service := NewCleanupService(alerts, &fakeCleanupReminderStorage{}, time.UTC, logger.Nop())

	if err := service.CleanupAlerts(context.Background()); err != nil {
		t.Fatalf("CleanupAlerts: %v", err)
	}
	if len(alerts.deleted) != 0 {
		t.Fatalf("expected no delete calls, got %d", len(alerts.deleted))
	}
}

func TestCleanupReminders_UsesStartOfToday(t *testing.T) {
	reminders := &fakeCleanupReminderStorage{deleted: 3}
	service := NewCleanupService(&fakeCleanupAlertStorage{}, reminders, time.UTC, logger.Nop())

	if err := service.CleanupReminders(context.Background()); err != nil {
		t.Fatalf("CleanupReminders: %v", err)
	}

	want := StartOfDay(time.Now().UTC())
	if !reminders.before.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, reminders.before)
	}
}

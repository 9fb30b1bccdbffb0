package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ci-events/notify-server/internal/domain/entity"
	"github.com/ci-events/notify-server/pkg/logger"
	"github.com/ci-events/notify-server/pkg/push"
)

type eventStorage interface {
	GetNewActive(ctx context.Context, from time.Time) ([]entity.Event, error)
	SetNotified(ctx context.Context, ids []string) error
}

type userStorage interface {
	GetNotifiable(ctx context.Context) ([]entity.User, error)
	GetAdmins(ctx context.Context) ([]entity.User, error)
}

type alertStorage interface {
	Create(ctx context.Context, alert *entity.Alert) error
	CountUnviewed(ctx context.Context, userID string) (int64, error)
}

type reminderStorage interface {
	GetDueWindow(ctx context.Context, from, to time.Time) ([]entity.ReminderSchedule, error)
	SetSent(ctx context.Context, ids []string) error
}

type requestStorage interface {
	GetPendingResponses(ctx context.Context) ([]entity.Request, error)
	GetUnseenByAdmins(ctx context.Context) ([]entity.Request, error)
	MarkResponded(ctx context.Context, ids []string) error
	MarkAdminsNotified(ctx context.Context, ids []string) error
}

type pushSender interface {
	Send(ctx context.Context, msg push.Message) push.Result
}

// Texts holds the user-facing copy per notification category. The exact
// phrasing is platform configuration, not code.
type Texts struct {
	SubscriptionBody string
	ReminderBody     string
	ResponseTitle    string
	ResponseBody     string
	AdminTitle       string
	AdminBodyPrefix  string
}

type NotifyService struct {
	eventStorage    eventStorage
	userStorage     userStorage
	alertStorage    alertStorage
	reminderStorage reminderStorage
	requestStorage  requestStorage

	push   pushSender
	zone   *time.Location
	texts  Texts
	logger *logger.Logger
}

func NewNotifyService(
	eventStorage eventStorage,
	userStorage userStorage,
	alertStorage alertStorage,
	reminderStorage reminderStorage,
	requestStorage requestStorage,
	push pushSender,
	zone *time.Location,
	texts Texts,
	logger *logger.Logger,
) *NotifyService {
	return &NotifyService{
		eventStorage:    eventStorage,
		userStorage:     userStorage,
		alertStorage:    alertStorage,
		reminderStorage: reminderStorage,
		requestStorage:  requestStorage,
		push:            push,
		zone:            zone,
		texts:           texts,
		logger:          logger,
	}
}

// notification is one (user, item) pair scheduled for dispatch.
type notification struct {
	Type      entity.AlertType
	UserID    string
	Token     string
	Title     string
	Body      string
	EventID   string
	RequestID string
}

// NotifySubscribers sends subscription notifications for new events to every
// user whose subscriptions match the event, then marks the events as
// notified in one bulk update.
func (s *NotifyService) NotifySubscribers(ctx context.Context) error {
	users, err := s.userStorage.GetNotifiable(ctx)
	if err != nil {
		return fmt.Errorf("failed to get notifiable users: %w", err)
	}

	now := time.Now().In(s.zone)
	events, err := s.eventStorage.GetNewActive(ctx, StartOfDay(now))
	if err != nil {
		return fmt.Errorf("failed to get new active events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	var batch []notification
	for _, event := range events {
		for _, user := range MatchSubscribers(users, event.TeacherIDs(), event.OrgIDs) {
			batch = append(batch, notification{
				Type:    entity.AlertTypeSubscription,
				UserID:  user.ID,
				Token:   user.FCMToken,
				Title:   event.Title,
				Body:    s.texts.SubscriptionBody,
				EventID: event.ID,
			})
		}
	}

	result := s.dispatchBatch(ctx, batch)
	s.logger.Infof("sent %d subscription notifications for %d events, %d failures",
		result.Sent, len(events), result.Failed)

	ids := make([]string, 0, len(events))
	for _, event := range events {
		ids = append(ids, event.ID)
	}
	if err = s.eventStorage.SetNotified(ctx, ids); err != nil {
		return fmt.Errorf("failed to set events as notified: %w", err)
	}
	return nil
}

// DueReminders sends reminder notifications for every schedule whose target
// time has arrived, then marks those schedules as sent in one bulk update.
func (s *NotifyService) DueReminders(ctx context.Context) error {
	now := time.Now().In(s.zone)
	from := StartOfDay(now)
	to := EndOfDay(now.AddDate(0, 0, 7))

	reminders, err := s.reminderStorage.GetDueWindow(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to get due reminders: %w", err)
	}

	var due []entity.ReminderSchedule
	for _, reminder := range reminders {
		if ReminderDue(now, reminder.Event, reminder.RemindInHours, s.zone) {
			due = append(due, reminder)
		}
	}
	if len(due) == 0 {
		return nil
	}

	batch := make([]notification, 0, len(due))
	ids := make([]string, 0, len(due))
	for _, reminder := range due {
		ids = append(ids, reminder.ID)
		batch = append(batch, notification{
			Type:    entity.AlertTypeReminder,
			UserID:  reminder.UserID,
			Token:   reminder.User.FCMToken,
			Title:   reminder.Event.Title,
			Body:    s.texts.ReminderBody,
			EventID: reminder.EventID,
		})
	}

	result := s.dispatchBatch(ctx, batch)
	s.logger.Infof("sent %d due reminders, %d failures", result.Sent, result.Failed)

	if err = s.reminderStorage.SetSent(ctx, ids); err != nil {
		return fmt.Errorf("failed to set reminders as sent: %w", err)
	}
	return nil
}

// ResponseNotifications tells requesters their request got a response, then
// flips the response flags on the requests in one bulk update.
func (s *NotifyService) ResponseNotifications(ctx context.Context) error {
	requests, err := s.requestStorage.GetPendingResponses(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending responses: %w", err)
	}
	if len(requests) == 0 {
		return nil
	}

	batch := make([]notification, 0, len(requests))
	ids := make([]string, 0, len(requests))
	for _, request := range requests {
		ids = append(ids, request.ID)
		batch = append(batch, notification{
			Type:      entity.AlertTypeResponse,
			UserID:    request.UserID,
			Token:     request.User.FCMToken,
			Title:     s.texts.ResponseTitle,
			Body:      s.texts.ResponseBody,
			RequestID: request.ID,
		})
	}

	result := s.dispatchBatch(ctx, batch)
	s.logger.Infof("sent %d response notifications, %d failures", result.Sent, result.Failed)

	if err = s.requestStorage.MarkResponded(ctx, ids); err != nil {
		return fmt.Errorf("failed to mark requests as responded: %w", err)
	}
	return nil
}

// AdminNotifications tells every administrator about new requests, then
// marks the requests as triaged in one bulk update. Each admin's
// notifications run sequentially so successive badge counts stay accurate;
// admins run concurrently with each other.
func (s *NotifyService) AdminNotifications(ctx context.Context) error {
	admins, err := s.userStorage.GetAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to get admin users: %w", err)
	}
	requests, err := s.requestStorage.GetUnseenByAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to get new requests: %w", err)
	}
	if len(requests) == 0 {
		return nil
	}

	groups := make([][]notification, 0, len(admins))
	for _, admin := range admins {
		group := make([]notification, 0, len(requests))
		for _, request := range requests {
			group = append(group, notification{
				Type:   entity.AlertTypeAdmin,
				UserID: admin.ID,
				Token:  admin.FCMToken,
				Title:  s.texts.AdminTitle,
				Body:   s.texts.AdminBodyPrefix + request.Name,
			})
		}
		groups = append(groups, group)
	}

	result := s.dispatchGroups(ctx, groups)
	s.logger.Infof("sent %d admin notifications for %d requests, %d failures",
		result.Sent, len(requests), result.Failed)

	ids := make([]string, 0, len(requests))
	for _, request := range requests {
		ids = append(ids, request.ID)
	}
	if err = s.requestStorage.MarkAdminsNotified(ctx, ids); err != nil {
		return fmt.Errorf("failed to mark requests as admins notified: %w", err)
	}
	return nil
}

type batchResult struct {
	Sent   int
	Failed int
}

// dispatchBatch runs every notification concurrently and waits for all of
// them. A failed send never aborts its siblings.
func (s *NotifyService) dispatchBatch(ctx context.Context, batch []notification) batchResult {
	groups := make([][]notification, 0, len(batch))
	for _, n := range batch {
		groups = append(groups, []notification{n})
	}
	return s.dispatchGroups(ctx, groups)
}

// dispatchGroups runs groups concurrently and the notifications inside a
// group sequentially, joining on the whole set before returning.
func (s *NotifyService) dispatchGroups(ctx context.Context, groups [][]notification) batchResult {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result batchResult
	)
	for _, group := range groups {
		wg.Add(1)
		go func(group []notification) {
			defer wg.Done()
			for _, n := range group {
				err := s.dispatch(ctx, n)

				mu.Lock()
				if err != nil {
					result.Failed++
					mu.Unlock()
					s.logger.Errorf("failed to notify user %s: %v", n.UserID, err)
					continue
				}
				result.Sent++
				mu.Unlock()
			}
		}(group)
	}
	wg.Wait()
	return result
}

// dispatch persists the alert and then attempts the push. The alert is
// written even when the user has no token; a missing token is a valid state,
// not a failure.
func (s *NotifyService) dispatch(ctx context.Context, n notification) error {
	unread, err := s.alertStorage.CountUnviewed(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("failed to count unviewed alerts: %w", err)
	}

	alert := &entity.Alert{
		UserID: n.UserID,
		Type:   n.Type,
	}
	switch n.Type {
	case entity.AlertTypeSubscription, entity.AlertTypeReminder:
		alert.EventID = &n.EventID
		alert.Title = n.Title
	case entity.AlertTypeResponse:
		alert.RequestID = &n.RequestID
	case entity.AlertTypeAdmin:
		alert.Title = n.Body
	}
	if err = s.alertStorage.Create(ctx, alert); err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	if n.Token == "" {
		return nil
	}

	url := deepLink(n)
	result := s.push.Send(ctx, push.Message{
		Token:     n.Token,
		Title:     n.Title,
		Body:      n.Body,
		URL:       url,
		EventID:   n.EventID,
		RequestID: n.RequestID,
		Badge:     unread + 1,
	})
	if !result.Success {
		return fmt.Errorf("push send failed: %w", result.Err)
	}
	return nil
}

func deepLink(n notification) string {
	switch n.Type {
	case entity.AlertTypeSubscription, entity.AlertTypeReminder:
		return "/event/" + n.EventID
	case entity.AlertTypeResponse:
		return "/request/" + n.RequestID
	}
	return ""
}

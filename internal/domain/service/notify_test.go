package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ci-events/notify-server/internal/domain/entity"
	"github.com/ci-events/notify-server/pkg/logger"
	"github.com/ci-events/notify-server/pkg/push"
)

type fakeEventStorage struct {
	mu       sync.Mutex
	events   []entity.Event
	notified [][]string
}

func (f *fakeEventStorage) GetNewActive(_ context.Context, _ time.Time) ([]entity.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Event
	for _, e := range f.events {
		if !e.Notified && !e.Hidden && !e.Cancelled {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventStorage) SetNotified(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, ids)
	for i := range f.events {
		for _, id := range ids {
			if f.events[i].ID == id {
				f.events[i].Notified = true
			}
		}
	}
	return nil
}

type fakeUserStorage struct {
	users []entity.User
}

func (f *fakeUserStorage) GetNotifiable(_ context.Context) ([]entity.User, error) {
	return f.users, nil
}

func (f *fakeUserStorage) GetAdmins(_ context.Context) ([]entity.User, error) {
	var admins []entity.User
	for _, u := range f.users {
		if u.IsAdmin {
			admins = append(admins, u)
		}
	}
	return admins, nil
}

type fakeAlertStorage struct {
	mu     sync.Mutex
	alerts []entity.Alert
}

func (f *fakeAlertStorage) Create(_ context.Context, alert *entity.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, *alert)
	return nil
}

func (f *fakeAlertStorage) CountUnviewed(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, a := range f.alerts {
		if a.UserID == userID && !a.Viewed {
			count++
		}
	}
	return count, nil
}

func (f *fakeAlertStorage) forUser(userID string) []entity.Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Alert
	for _, a := range f.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}

type fakeReminderStorage struct {
	mu        sync.Mutex
	reminders []entity.ReminderSchedule
	sent      [][]string
}

func (f *fakeReminderStorage) GetDueWindow(_ context.Context, _, _ time.Time) ([]entity.ReminderSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.ReminderSchedule
	for _, r := range f.reminders {
		if !r.Sent && r.User.ReceiveNotifications {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReminderStorage) SetSent(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, ids)
	for i := range f.reminders {
		for _, id := range ids {
			if f.reminders[i].ID == id {
				f.reminders[i].Sent = true
			}
		}
	}
	return nil
}

type fakeRequestStorage struct {
	mu             sync.Mutex
	requests       []entity.Request
	responded      [][]string
	adminsNotified [][]string
}

func (f *fakeRequestStorage) GetPendingResponses(_ context.Context) ([]entity.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Request
	for _, r := range f.requests {
		if r.ToSend {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRequestStorage) GetUnseenByAdmins(_ context.Context) ([]entity.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Request
	for _, r := range f.requests {
		if r.AdminsNotified == nil || !*r.AdminsNotified {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRequestStorage) MarkResponded(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responded = append(f.responded, ids)
	for i := range f.requests {
		for _, id := range ids {
			if f.requests[i].ID == id {
				f.requests[i].Sent = true
				f.requests[i].ToSend = false
				f.requests[i].Viewed = false
			}
		}
	}
	return nil
}

func (f *fakeRequestStorage) MarkAdminsNotified(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adminsNotified = append(f.adminsNotified, ids)
	notified := true
	for i := range f.requests {
		for _, id := range ids {
			if f.requests[i].ID == id {
				f.requests[i].AdminsNotified = &notified
			}
		}
	}
	return nil
}

type fakePush struct {
	mu         sync.Mutex
	sent       []push.Message
	failTokens map[string]bool
}

func (f *fakePush) Send(_ context.Context, msg push.Message) push.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if f.failTokens[msg.Token] {
		return push.Result{Err: errors.New("transport rejected")}
	}
	return push.Result{Success: true, MessageID: "msg-" + msg.Token}
}

func (f *fakePush) messages() []push.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]push.Message, len(f.sent))
	copy(out, f.sent)
	return out
}

type notifyFixture struct {
	events    *fakeEventStorage
	users     *fakeUserStorage
	alerts    *fakeAlertStorage
	reminders *fakeReminderStorage
	requests  *fakeRequestStorage
	push      *fakePush
	service   *NotifyService
}

func newNotifyFixture(t *testing.T) *notifyFixture {
	t.Helper()
	f := &notifyFixture{
		events:    &fakeEventStorage{},
		users:     &fakeUserStorage{},
		alerts:    &fakeAlertStorage{},
		reminders: &fakeReminderStorage{},
		requests:  &fakeRequestStorage{},
		push:      &fakePush{failTokens: map[string]bool{}},
	}
	f.service = NewNotifyService(
		f.events,
		f.users,
		f.alerts,
		f.reminders,
		f.requests,
		f.push,
		time.UTC,
		Texts{
			SubscriptionBody: "new event",
			ReminderBody:     "reminder",
			ResponseTitle:    "response",
			ResponseBody:     "response to request",
			AdminTitle:       "new request",
			AdminBodyPrefix:  "request from ",
		},
		logger.Nop(),
	)
	return f
}

func singleDayEvent(id, title string, teacherIDs, orgIDs []string) entity.Event {
	start := time.Now().UTC().AddDate(0, 0, 3)
	return entity.Event{
		ID:        id,
		Title:     title,
		StartDate: StartOfDay(start),
		OrgIDs:    orgIDs,
		Segments: []entity.EventSegment{
			{
				ID:         id + "-seg",
				EventID:    id,
				StartTime:  StartOfDay(start).Add(18 * time.Hour),
				TeacherIDs: teacherIDs,
			},
		},
	}
}

func TestNotifySubscribers_ORMatchingAndTokenSkip(t *testing.T) {
	f := newNotifyFixture(t)
	f.events.events = []entity.Event{singleDayEvent("e1", "Jam", []string{"t1"}, []string{"o1"})}
	f.users.users = []entity.User{
		{ID: "teacher-fan", FCMToken: "tok-a", SubscribedTeachers: []string{"t1"}},
		{ID: "org-fan", FCMToken: "tok-b", SubscribedOrgs: []string{"o1"}},
		{ID: "unrelated", FCMToken: "tok-c", SubscribedTeachers: []string{"t9"}},
		{ID: "no-token", SubscribedTeachers: []string{"t1"}},
	}

	if err := f.service.NotifySubscribers(context.Background()); err != nil {
		t.Fatalf("NotifySubscribers: %v", err)
	}

	if got := len(f.alerts.alerts); got != 3 {
		t.Fatalf("expected 3 alerts, got %d", got)
	}
	if got := len(f.alerts.forUser("unrelated")); got != 0 {
		t.Fatalf("unrelated user got %d alerts", got)
	}
	if got := len(f.alerts.forUser("no-token")); got != 1 {
		t.Fatalf("tokenless user should still get an alert, got %d", got)
	}
	if got := len(f.push.messages()); got != 2 {
		t.Fatalf("expected 2 push sends, got %d", got)
	}
	for _, msg := range f.push.messages() {
		if msg.URL != "/event/e1" {
			t.Fatalf("unexpected deep link %q", msg.URL)
		}
		if msg.Title != "Jam" || msg.Body != "new event" {
			t.Fatalf("unexpected message copy %q / %q", msg.Title, msg.Body)
		}
	}
	if len(f.events.notified) != 1 {
		t.Fatalf("expected one bulk flag update, got %d", len(f.events.notified))
	}
}

func TestNotifySubscribers_Idempotent(t *testing.T) {
	f := newNotifyFixture(t)
	f.events.events = []entity.Event{singleDayEvent("e1", "Jam", []string{"t1"}, nil)}
	f.users.users = []entity.User{
		{ID: "u1", FCMToken: "tok", SubscribedTeachers: []string{"t1"}},
	}

	ctx := context.Background()
	if err := f.service.NotifySubscribers(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := f.service.NotifySubscribers(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if got := len(f.alerts.alerts); got != 1 {
		t.Fatalf("expected 1 alert after two runs, got %d", got)
	}
	if got := len(f.push.messages()); got != 1 {
		t.Fatalf("expected 1 push send after two runs, got %d", got)
	}
}

func TestDueReminders_BadgeAccounting(t *testing.T) {
	f := newNotifyFixture(t)
	event := singleDayEvent("e1", "Workshop", nil, nil)
	event.StartDate = StartOfDay(time.Now().UTC())
	event.Segments[0].StartTime = event.StartDate // already started, reminder overdue
	f.reminders.reminders = []entity.ReminderSchedule{
		{
			ID:            "r1",
			EventID:       event.ID,
			UserID:        "u1",
			RemindInHours: 2,
			Event:         event,
			User:          entity.User{ID: "u1", FCMToken: "tok", ReceiveNotifications: true},
		},
	}
	for i := 0; i < 3; i++ {
		f.alerts.alerts = append(f.alerts.alerts, entity.Alert{UserID: "u1", Viewed: false})
	}

	if err := f.service.DueReminders(context.Background()); err != nil {
		t.Fatalf("DueReminders: %v", err)
	}

	messages := f.push.messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 push send, got %d", len(messages))
	}
	if messages[0].Badge != 4 {
		t.Fatalf("expected badge 4, got %d", messages[0].Badge)
	}
}

func TestDueReminders_SecondRunSendsNothing(t *testing.T) {
	f := newNotifyFixture(t)
	event := singleDayEvent("e1", "Workshop", nil, nil)
	event.StartDate = StartOfDay(time.Now().UTC())
	event.Segments[0].StartTime = event.StartDate
	f.reminders.reminders = []entity.ReminderSchedule{
		{
			ID:            "r1",
			EventID:       event.ID,
			UserID:        "u1",
			RemindInHours: 1,
			Event:         event,
			User:          entity.User{ID: "u1", FCMToken: "tok", ReceiveNotifications: true},
		},
	}

	ctx := context.Background()
	if err := f.service.DueReminders(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := f.service.DueReminders(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if got := len(f.push.messages()); got != 1 {
		t.Fatalf("expected 1 push send total, got %d", got)
	}
	if got := len(f.reminders.sent); got != 1 {
		t.Fatalf("expected one flag update, got %d", got)
	}
}

func TestDueReminders_PartialBatchResilience(t *testing.T) {
	f := newNotifyFixture(t)
	event := singleDayEvent("e1", "Workshop", nil, nil)
	event.StartDate = StartOfDay(time.Now().UTC())
	event.Segments[0].StartTime = event.StartDate

	for i, token := range []string{"tok-1", "tok-2", "tok-3", "tok-4", "tok-5"} {
		userID := string(rune('a' + i))
		f.reminders.reminders = append(f.reminders.reminders, entity.ReminderSchedule{
			ID:            "r-" + userID,
			EventID:       event.ID,
			UserID:        userID,
			RemindInHours: 1,
			Event:         event,
			User:          entity.User{ID: userID, FCMToken: token, ReceiveNotifications: true},
		})
	}
	f.push.failTokens["tok-2"] = true
	f.push.failTokens["tok-4"] = true

	if err := f.service.DueReminders(context.Background()); err != nil {
		t.Fatalf("DueReminders: %v", err)
	}

	if got := len(f.alerts.alerts); got != 5 {
		t.Fatalf("expected 5 alerts regardless of send failures, got %d", got)
	}
	if got := len(f.push.messages()); got != 5 {
		t.Fatalf("expected 5 push attempts, got %d", got)
	}
	if got := len(f.reminders.sent); got != 1 {
		t.Fatalf("flag update must still fire once, got %d", got)
	}
	if got := len(f.reminders.sent[0]); got != 5 {
		t.Fatalf("expected all 5 reminders marked sent, got %d", got)
	}
}

func TestDueReminders_SkipsOptedOutUsers(t *testing.T) {
	f := newNotifyFixture(t)
	event := singleDayEvent("e1", "Workshop", nil, nil)
	event.StartDate = StartOfDay(time.Now().UTC())
	event.Segments[0].StartTime = event.StartDate
	f.reminders.reminders = []entity.ReminderSchedule{
		{
			ID:            "r-in",
			EventID:       event.ID,
			UserID:        "opted-in",
			RemindInHours: 1,
			Event:         event,
			User:          entity.User{ID: "opted-in", FCMToken: "tok-in", ReceiveNotifications: true},
		},
		{
			ID:            "r-out",
			EventID:       event.ID,
			UserID:        "opted-out",
			RemindInHours: 1,
			Event:         event,
			User:          entity.User{ID: "opted-out", FCMToken: "tok-out"},
		},
	}

	if err := f.service.DueReminders(context.Background()); err != nil {
		t.Fatalf("DueReminders: %v", err)
	}

	if got := len(f.alerts.forUser("opted-out")); got != 0 {
		t.Fatalf("opted-out user must get no alert, got %d", got)
	}
	for _, msg := range f.push.messages() {
		if msg.Token == "tok-out" {
			t.Fatal("opted-out user must get no push")
		}
	}
	if got := len(f.alerts.forUser("opted-in")); got != 1 {
		t.Fatalf("opted-in user must still get a reminder, got %d alerts", got)
	}
	if got := len(f.reminders.sent); got != 1 || len(f.reminders.sent[0]) != 1 || f.reminders.sent[0][0] != "r-in" {
		t.Fatalf("only the dispatched reminder may be marked sent, got %v", f.reminders.sent)
	}
}

func TestResponseNotifications(t *testing.T) {
	f := newNotifyFixture(t)
	f.requests.requests = []entity.Request{
		{ID: "req1", UserID: "u1", ToSend: true, User: entity.User{ID: "u1", FCMToken: "tok"}},
	}

	if err := f.service.ResponseNotifications(context.Background()); err != nil {
		t.Fatalf("ResponseNotifications: %v", err)
	}

	alerts := f.alerts.forUser("u1")
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].RequestID == nil || *alerts[0].RequestID != "req1" {
		t.Fatalf("alert must reference the request")
	}
	if alerts[0].EventID != nil {
		t.Fatalf("response alert must not reference an event")
	}

	messages := f.push.messages()
	if len(messages) != 1 || messages[0].URL != "/request/req1" {
		t.Fatalf("unexpected push messages: %+v", messages)
	}
	if len(f.requests.responded) != 1 {
		t.Fatalf("expected one bulk responded update")
	}
	if f.requests.requests[0].ToSend || !f.requests.requests[0].Sent {
		t.Fatalf("request flags not flipped: %+v", f.requests.requests[0])
	}
}

func TestAdminNotifications_BadgeSequencePerAdmin(t *testing.T) {
	f := newNotifyFixture(t)
	f.users.users = []entity.User{
		{ID: "admin1", IsAdmin: true, FCMToken: "tok-adm1"},
		{ID: "admin2", IsAdmin: true, FCMToken: "tok-adm2"},
		{ID: "regular", FCMToken: "tok-reg"},
	}
	f.requests.requests = []entity.Request{
		{ID: "req1", Name: "Dana"},
		{ID: "req2", Name: "Noa"},
	}

	if err := f.service.AdminNotifications(context.Background()); err != nil {
		t.Fatalf("AdminNotifications: %v", err)
	}

	if got := len(f.alerts.alerts); got != 4 {
		t.Fatalf("expected 4 alerts (2 admins x 2 requests), got %d", got)
	}
	if got := len(f.alerts.forUser("regular")); got != 0 {
		t.Fatalf("non-admin got %d alerts", got)
	}

	badges := map[string][]int64{}
	for _, msg := range f.push.messages() {
		if msg.URL != "" {
			t.Fatalf("admin notification must have no deep link, got %q", msg.URL)
		}
		badges[msg.Token] = append(badges[msg.Token], msg.Badge)
	}
	for token, seq := range badges {
		if len(seq) != 2 || seq[0] != 1 || seq[1] != 2 {
			t.Fatalf("badges for %s must grow 1,2, got %v", token, seq)
		}
	}

	if len(f.requests.adminsNotified) != 1 || len(f.requests.adminsNotified[0]) != 2 {
		t.Fatalf("expected one bulk admins-notified update for both requests")
	}
}

func TestAdminNotifications_SecondRunSendsNothing(t *testing.T) {
	f := newNotifyFixture(t)
	f.users.users = []entity.User{{ID: "admin1", IsAdmin: true, FCMToken: "tok"}}
	f.requests.requests = []entity.Request{{ID: "req1", Name: "Dana"}}

	ctx := context.Background()
	if err := f.service.AdminNotifications(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := f.service.AdminNotifications(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if got := len(f.push.messages()); got != 1 {
		t.Fatalf("expected 1 push send total, got %d", got)
	}
}

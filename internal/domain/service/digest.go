package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ci-events/notify-server/internal/domain/entity"
	"github.com/ci-events/notify-server/pkg/logger"
)

const digestTrigger = "cron_job"

type waUserStorage interface {
	GetSubscribed(ctx context.Context) ([]entity.WAUser, error)
}

type twilioLogStorage interface {
	Create(ctx context.Context, log *entity.TwilioLog) error
}

type digestEventStorage interface {
	GetBetween(ctx context.Context, from, to time.Time) ([]entity.Event, error)
}

type whatsappSender interface {
	From() string
	SendTemplate(to, contentSID string, variables map[string]string) (string, error)
}

type translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

type DigestService struct {
	waUserStorage    waUserStorage
	eventStorage     digestEventStorage
	twilioLogStorage twilioLogStorage

	whatsapp    whatsappSender
	translator  translator
	templateSID string
	zone        *time.Location
	logger      *logger.Logger
}

func NewDigestService(
	waUserStorage waUserStorage,
	eventStorage digestEventStorage,
	twilioLogStorage twilioLogStorage,
	whatsapp whatsappSender,
	translator translator,
	templateSID string,
	zone *time.Location,
	logger *logger.Logger,
) *DigestService {
	return &DigestService{
		waUserStorage:    waUserStorage,
		eventStorage:     eventStorage,
		twilioLogStorage: twilioLogStorage,
		whatsapp:         whatsapp,
		translator:       translator,
		templateSID:      templateSID,
		zone:             zone,
		logger:           logger,
	}
}

// SendWeeklyDigest sends every subscribed WhatsApp user a template message
// listing this week's events (today through Saturday). Per-user failures are
// counted and logged; they never abort the other sends. Every Twilio result
// is written to the audit log.
func (s *DigestService) SendWeeklyDigest(ctx context.Context) error {
	users, err := s.waUserStorage.GetSubscribed(ctx)
	if err != nil {
		return fmt.Errorf("failed to get subscribed whatsapp users: %w", err)
	}

	now := time.Now().In(s.zone)
	from := StartOfDay(now)
	daysToSaturday := 6 - int(now.Weekday())
	to := EndOfDay(from.AddDate(0, 0, daysToSaturday))

	events, err := s.eventStorage.GetBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to get this week's events: %w", err)
	}
	if len(events) == 0 {
		s.logger.Info("no events this week, skipping digest")
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures int
	)
	for _, user := range users {
		wg.Add(1)
		go func(user entity.WAUser) {
			defer wg.Done()
			if err := s.sendDigest(ctx, user, events); err != nil {
				s.logger.Errorf("failed to send digest to %s: %v", user.ID, err)
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}(user)
	}
	wg.Wait()

	s.logger.Infof("sent weekly digest to %d users, %d failures", len(users), failures)
	return nil
}

func (s *DigestService) sendDigest(ctx context.Context, user entity.WAUser, events []entity.Event) error {
	lines := make([]string, 0, len(events))
	for _, event := range events {
		lines = append(lines, s.eventLine(ctx, event, user.Language))
	}
	variables := map[string]string{
		"1": strconv.Itoa(len(events)),
		"2": strings.Join(lines, "\n"),
	}

	result, sendErr := s.whatsapp.SendTemplate(fmt.Sprintf("whatsapp:%s", user.Phone), s.templateSID, variables)
	if sendErr != nil {
		result = sendErr.Error()
	}

	logErr := s.twilioLogStorage.Create(ctx, &entity.TwilioLog{
		WAUserID:   user.ID,
		Trigger:    digestTrigger,
		FromNumber: s.whatsapp.From(),
		ToNumber:   user.Phone,
		Result:     result,
	})
	if logErr != nil {
		s.logger.Errorf("failed to log twilio result for %s: %v", user.ID, logErr)
	}

	return sendErr
}

// eventLine renders one digest line, translated when the user's language is
// not the platform's. Translation failures fall back to the original text.
func (s *DigestService) eventLine(ctx context.Context, event entity.Event, lang string) string {
	title := event.Title
	district := event.District
	if lang != "" && lang != "he" {
		if translated, err := s.translator.Translate(ctx, title, lang); err == nil {
			title = translated
		}
		if district != "" {
			if translated, err := s.translator.Translate(ctx, district, lang); err == nil {
				district = translated
			}
		}
	}
	if district == "" {
		return title
	}
	return fmt.Sprintf("%s (%s)", title, district)
}

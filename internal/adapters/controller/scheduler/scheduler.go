// Package scheduler drives the notification categories on a fixed cadence.
// A tick that fires while the previous one is still running is skipped, so
// two batches never race over the same item's processed flag.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ci-events/notify-server/pkg/logger"
)

type dispatcher interface {
	NotifySubscribers(ctx context.Context) error
	DueReminders(ctx context.Context) error
	ResponseNotifications(ctx context.Context) error
	AdminNotifications(ctx context.Context) error
}

type cleaner interface {
	CleanupAlerts(ctx context.Context) error
	CleanupReminders(ctx context.Context) error
}

type configStorage interface {
	NotificationsEnabled(ctx context.Context, title string) (bool, error)
}

type Scheduler struct {
	dispatcher dispatcher
	cleaner    cleaner
	config     configStorage

	flagTitle       string
	interval        time.Duration
	cleanupInterval time.Duration
	logger          *logger.Logger

	running sync.Mutex
}

type Options struct {
	FlagTitle       string
	Interval        time.Duration
	CleanupInterval time.Duration
}

func New(dispatcher dispatcher, cleaner cleaner, config configStorage, opts Options, logger *logger.Logger) *Scheduler {
	return &Scheduler{
		dispatcher:      dispatcher,
		cleaner:         cleaner,
		config:          config,
		flagTitle:       opts.FlagTitle,
		interval:        opts.Interval,
		cleanupInterval: opts.CleanupInterval,
		logger:          logger,
	}
}

// Start runs the tick loop until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("starting notify scheduler")
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		cleanupTicker := time.NewTicker(s.cleanupInterval)
		defer cleanupTicker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Tick(ctx)
			case <-cleanupTicker.C:
				s.runCleanup(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Tick runs all notification categories concurrently and waits for every
// one of them to finish.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.running.TryLock() {
		s.logger.Debug("previous tick still running, skipping")
		return
	}
	defer s.running.Unlock()

	enabled, err := s.config.NotificationsEnabled(ctx, s.flagTitle)
	if err != nil {
		s.logger.Errorf("failed to check notification flag: %v", err)
		return
	}
	if !enabled {
		s.logger.Debug("notifications disabled, skipping tick")
		return
	}

	// tick id correlates the category logs of one tick
	tick := uuid.NewString()

	var wg sync.WaitGroup
	run := func(category string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			if err := fn(ctx); err != nil {
				s.logger.Errorf("(tick: %s) %s failed: %v", tick, category, err)
				return
			}
			s.logger.Debugf("(tick: %s) %s finished in %s", tick, category, time.Since(start))
		}()
	}

	run("notify-subscribers", s.dispatcher.NotifySubscribers)
	run("due-notifications", s.dispatcher.DueReminders)
	run("response-notifications", s.dispatcher.ResponseNotifications)
	run("admin-notifications", s.dispatcher.AdminNotifications)
	wg.Wait()
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	if err := s.cleaner.CleanupAlerts(ctx); err != nil {
		s.logger.Errorf("alert cleanup failed: %v", err)
	}
	if err := s.cleaner.CleanupReminders(ctx); err != nil {
		s.logger.Errorf("reminder cleanup failed: %v", err)
	}
}

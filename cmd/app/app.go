package app

import (
	"context"
	"time"

	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/ci-events/notify-server/internal/adapters/config"
	"github.com/ci-events/notify-server/internal/adapters/controller/rest"
	"github.com/ci-events/notify-server/internal/adapters/controller/scheduler"
	"github.com/ci-events/notify-server/internal/adapters/database/postgres"
	"github.com/ci-events/notify-server/internal/domain/service"
	"github.com/ci-events/notify-server/pkg/logger"
)

type App struct {
	DB        *gorm.DB
	Notify    *service.NotifyService
	Cleanup   *service.CleanupService
	Digest    *service.DigestService
	Scheduler *scheduler.Scheduler
	Server    *rest.Server
	Logger    *logger.Logger
}

func New(cfg *config.Config) (*App, error) {
	dispatcherLogger, err := logger.Named("dispatcher")
	if err != nil {
		return nil, err
	}
	schedulerLogger, err := logger.Named("scheduler")
	if err != nil {
		return nil, err
	}
	restLogger, err := logger.Named("rest")
	if err != nil {
		return nil, err
	}

	eventStorage := postgres.NewEventStorage(cfg.Database)
	userStorage := postgres.NewUserStorage(cfg.Database)
	alertStorage := postgres.NewAlertStorage(cfg.Database)
	reminderStorage := postgres.NewReminderStorage(cfg.Database)
	requestStorage := postgres.NewRequestStorage(cfg.Database)
	waUserStorage := postgres.NewWAUserStorage(cfg.Database)
	twilioLogStorage := postgres.NewTwilioLogStorage(cfg.Database)
	configStorage := postgres.NewConfigStorage(cfg.Database)

	texts := service.Texts{
		SubscriptionBody: viper.GetString("texts.subscription-body"),
		ReminderBody:     viper.GetString("texts.reminder-body"),
		ResponseTitle:    viper.GetString("texts.response-title"),
		ResponseBody:     viper.GetString("texts.response-body"),
		AdminTitle:       viper.GetString("texts.admin-title"),
		AdminBodyPrefix:  viper.GetString("texts.admin-body-prefix"),
	}

	notifyService := service.NewNotifyService(
		eventStorage,
		userStorage,
		alertStorage,
		reminderStorage,
		requestStorage,
		cfg.Push,
		cfg.Zone,
		texts,
		dispatcherLogger,
	)
	cleanupService := service.NewCleanupService(alertStorage, reminderStorage, cfg.Zone, dispatcherLogger)
	digestService := service.NewDigestService(
		waUserStorage,
		eventStorage,
		twilioLogStorage,
		cfg.WhatsApp,
		cfg.Translate,
		viper.GetString("service.twilio.digest-template-sid"),
		cfg.Zone,
		dispatcherLogger,
	)

	sched := scheduler.New(notifyService, cleanupService, configStorage, scheduler.Options{
		FlagTitle:       viper.GetString("settings.notifications-flag"),
		Interval:        time.Duration(viper.GetInt("settings.tick-interval-minutes")) * time.Minute,
		CleanupInterval: time.Duration(viper.GetInt("settings.cleanup-interval-hours")) * time.Hour,
	}, schedulerLogger)

	server := rest.NewServer(notifyService, cleanupService, digestService, restLogger)

	return &App{
		DB:        cfg.Database,
		Notify:    notifyService,
		Cleanup:   cleanupService,
		Digest:    digestService,
		Scheduler: sched,
		Server:    server,
		Logger:    logger.Log,
	}, nil
}

func (a *App) Start() error {
	a.Scheduler.Start(context.Background())
	a.Logger.Infof("listening on %s", viper.GetString("service.listen-addr"))
	return a.Server.Run(viper.GetString("service.listen-addr"))
}

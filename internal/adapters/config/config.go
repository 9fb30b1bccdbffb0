package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	postgresStorage "github.com/ci-events/notify-server/internal/adapters/database/postgres"
	redisStorage "github.com/ci-events/notify-server/internal/adapters/database/redis"
	"github.com/ci-events/notify-server/pkg/logger"
	"github.com/ci-events/notify-server/pkg/push"
	"github.com/ci-events/notify-server/pkg/translate"
	"github.com/ci-events/notify-server/pkg/whatsapp"
)

type Config struct {
	Database  *gorm.DB
	Redis     *redisStorage.Client
	Push      *push.Client
	WhatsApp  *whatsapp.Client
	Translate *translate.Client
	Zone      *time.Location
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("settings.timezone", "Asia/Jerusalem")
	viper.SetDefault("settings.notifications-flag", "notifications_enabled")
	viper.SetDefault("settings.tick-interval-minutes", 5)
	viper.SetDefault("settings.cleanup-interval-hours", 24)

	if err := viper.ReadInConfig(); err != nil {
		panic(err)
	}
}

// Get loads configuration and constructs every external collaborator the
// dispatcher needs. Missing credentials are fatal before any scheduled work
// is accepted.
func Get() *Config {
	initConfig()

	zone, err := time.LoadLocation(viper.GetString("settings.timezone"))
	if err != nil {
		panic(fmt.Errorf("failed to load timezone: %w", err))
	}

	err = logger.Init(logger.Config{
		Debug:        viper.GetBool("settings.debug"),
		TimeLocation: zone,
		LogToFile:    viper.GetBool("settings.log-to-file"),
		LogsDir:      viper.GetString("settings.logs-dir"),
	})
	if err != nil {
		panic(err)
	}

	var gormConfig *gorm.Config
	if viper.GetBool("settings.debug") {
		newLogger := gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold: time.Second,
				LogLevel:      gormLogger.Info,
				Colorful:      true,
			},
		)
		gormConfig = &gorm.Config{
			Logger: newLogger,
		}
	} else {
		gormConfig = &gorm.Config{}
	}

	dsn := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%d sslmode=disable TimeZone=%s",
		viper.GetString("service.database.user"),
		viper.GetString("service.database.password"),
		viper.GetString("service.database.name"),
		viper.GetString("service.database.host"),
		viper.GetInt("service.database.port"),
		viper.GetString("settings.timezone"),
	)

	database, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		logger.Log.Panicf("Failed to connect to the database: %v", err)
	} else {
		logger.Log.Info("Successfully connected to the database")
	}

	errMigrate := database.AutoMigrate(postgresStorage.Migrations...)
	if errMigrate != nil {
		logger.Log.Panicf("Failed to migrate database: %v", errMigrate)
	}

	redisClient, err := redisStorage.New(redisStorage.Options{
		Host:     viper.GetString("service.redis.host"),
		Port:     viper.GetString("service.redis.port"),
		Password: viper.GetString("service.redis.password"),
	})
	if err != nil {
		logger.Log.Panicf("Failed to connect to redis: %v", err)
	} else {
		logger.Log.Info("Successfully connected to redis")
	}

	pushClient, err := push.NewClient(context.Background(), viper.GetString("service.firebase.service-account-key-base64"))
	if err != nil {
		logger.Log.Panicf("Failed to initialize push client: %v", err)
	}

	whatsappClient, err := whatsapp.NewClient(
		viper.GetString("service.twilio.account-sid"),
		viper.GetString("service.twilio.auth-token"),
		viper.GetString("service.twilio.from-number"),
	)
	if err != nil {
		logger.Log.Panicf("Failed to initialize whatsapp client: %v", err)
	}

	translateClient, err := translate.NewClient(
		viper.GetString("service.google.translate-api-key"),
		redisClient.Translations,
	)
	if err != nil {
		logger.Log.Panicf("Failed to initialize translate client: %v", err)
	}

	return &Config{
		Database:  database,
		Redis:     redisClient,
		Push:      pushClient,
		WhatsApp:  whatsappClient,
		Translate: translateClient,
		Zone:      zone,
	}
}

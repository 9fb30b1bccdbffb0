package redis

import (
	"context"
	"fmt"

	"github.com/ci-events/notify-server/internal/adapters/database/redis/translations"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	Translations *translations.Storage
}

type Options struct {
	Host     string
	Port     string
	Password string
}

func New(opts Options) (*Client, error) {
	translationStorage := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       0,
	})
	if err := translationStorage.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping translations storage: %w", err)
	}

	return &Client{
		Translations: translations.NewStorage(translationStorage),
	}, nil
}

package translations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage caches translated strings so repeated digest runs do not hit the
// translation API for the same text.
type Storage struct {
	redis *redis.Client
}

func NewStorage(client *redis.Client) *Storage {
	return &Storage{
		redis: client,
	}
}

const translationTTL = 30 * 24 * time.Hour

func key(text, targetLang string) string {
	return fmt.Sprintf("translation:%s:%s", targetLang, text)
}

// Get returns the cached translation or an empty string when not cached.
func (s *Storage) Get(ctx context.Context, text, targetLang string) (string, error) {
	translated, err := s.redis.Get(ctx, key(text, targetLang)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return translated, nil
}

func (s *Storage) Set(ctx context.Context, text, targetLang, translated string) error {
	return s.redis.Set(ctx, key(text, targetLang), translated, translationTTL).Err()
}

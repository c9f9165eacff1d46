package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	domainErrors "github.com/sahelpay/momo/internal/domain/errors"
)

const settingsKey = "settings"

// RedisStore persists settings in a single Redis hash so they survive
// restarts and are shared across instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed settings store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.HGet(ctx, settingsKey, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domainErrors.ErrSettingNotFound
		}
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return v, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.HSet(ctx, settingsKey, key, value).Err(); err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context) (map[string]string, error) {
	values, err := s.client.HGetAll(ctx, settingsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return values, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.HDel(ctx, settingsKey, key).Err(); err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	return nil
}

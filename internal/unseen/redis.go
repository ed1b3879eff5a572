package unseen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// RedisStore is the durable backend: one key-value entry per browser key
// holding the last-acknowledged timestamp as RFC3339.
type RedisStore struct {
	client *redis.Client
}

func (r *RedisStore) Load(ctx context.Context, key string) (time.Time, error) {
	data, err := r.client.Get(ctx, storeKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("redis get failed: %w", err)
	}

	at, err := time.Parse(time.RFC3339Nano, data)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse acknowledgment timestamp failed: %w", err)
	}
	return at, nil
}

func (r *RedisStore) Save(ctx context.Context, key string, at time.Time) error {
	if err := r.client.Set(ctx, storeKey(key), at.Format(time.RFC3339Nano), 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func storeKey(key string) string {
	return fmt.Sprintf("deals:last_ack:%s", key)
}

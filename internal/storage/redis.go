package storage

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStorage struct {
	client  *redis.Client
	baseTTL time.Duration
	jitter  time.Duration
}

type RedisOption func(*RedisStorage)

// WithTTL expires stored values after base plus a random share of jitter,
// so that abandoned carts do not expire all at once.
func WithTTL(base, jitter time.Duration) RedisOption {
	return func(r *RedisStorage) {
		r.baseTTL = base
		r.jitter = jitter
	}
}

// NewRedisStorage keeps values without expiry unless WithTTL is given.
func NewRedisStorage(client *redis.Client, opts ...RedisOption) *RedisStorage {
	r := &RedisStorage{client: client}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisStorage) GetItem(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return value, nil
}

func (r *RedisStorage) SetItem(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, redisKey(key), value, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) ttl() time.Duration {
	if r.baseTTL <= 0 {
		return 0
	}
	if r.jitter <= 0 {
		return r.baseTTL
	}
	return r.baseTTL + time.Duration(rand.Int63n(int64(r.jitter)))
}

func redisKey(key string) string {
	return fmt.Sprintf("storage:%s", key)
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// RedisCache stores the slot as JSON under one key with the ttl as its
// expiry. Redis errors degrade to a cache miss; they never fail a lookup.
type RedisCache[T any] struct {
	rdb   *redis.Client
	key   string
	group singleflight.Group
}

// NewRedisCache creates a Redis-backed cache. prefix namespaces the key.
func NewRedisCache[T any](rdb *redis.Client, prefix string) *RedisCache[T] {
	return &RedisCache[T]{
		rdb: rdb,
		key: fmt.Sprintf("%s:%s", prefix, slotKey),
	}
}

func (c *RedisCache[T]) GetOrRefresh(ctx context.Context, ttl time.Duration, refresh RefreshFunc[T]) (T, bool, error) {
	// Try cache.
	data, err := c.rdb.Get(ctx, c.key).Bytes()
	if err == nil {
		var v T
		if json.Unmarshal(data, &v) == nil {
			return v, true, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		slog.Warn("redis cache read failed", "key", c.key, "err", err)
	}

	// Cache miss.
	val, err := c.Refresh(ctx, ttl, refresh)
	return val, false, err
}

func (c *RedisCache[T]) Refresh(ctx context.Context, ttl time.Duration, refresh RefreshFunc[T]) (T, error) {
	v, err, _ := c.group.Do(c.key, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		val, err := refresh(ctx)
		if err != nil {
			return val, err
		}
		if data, err := json.Marshal(val); err == nil {
			if err := c.rdb.Set(ctx, c.key, data, ttl).Err(); err != nil {
				slog.Warn("redis cache write failed", "key", c.key, "err", err)
			}
		}
		return val, nil
	})
	val, _ := v.(T)
	return val, err
}

func (c *RedisCache[T]) Invalidate(ctx context.Context) error {
	c.group.Forget(c.key)
	return c.rdb.Del(ctx, c.key).Err()
}

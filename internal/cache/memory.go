package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// entry wraps a value with the time it was stored so a caller-supplied ttl
// can be applied on read.
type entry[T any] struct {
	value    T
	storedAt time.Time
}

// MemoryCache keeps the slot in an expirable LRU of size one. maxTTL is a
// hard upper bound; the ttl passed to GetOrRefresh may be shorter.
type MemoryCache[T any] struct {
	lru   *expirable.LRU[string, entry[T]]
	group singleflight.Group
	now   func() time.Time
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache[T any](maxTTL time.Duration) *MemoryCache[T] {
	return &MemoryCache[T]{
		lru: expirable.NewLRU[string, entry[T]](1, nil, maxTTL),
		now: time.Now,
	}
}

func (c *MemoryCache[T]) GetOrRefresh(ctx context.Context, ttl time.Duration, refresh RefreshFunc[T]) (T, bool, error) {
	if e, ok := c.lru.Get(slotKey); ok && c.now().Sub(e.storedAt) < ttl {
		return e.value, true, nil
	}

	val, err := c.Refresh(ctx, ttl, refresh)
	return val, false, err
}

func (c *MemoryCache[T]) Refresh(ctx context.Context, _ time.Duration, refresh RefreshFunc[T]) (T, error) {
	v, err, _ := c.group.Do(slotKey, func() (any, error) {
		val, err := refresh(context.WithoutCancel(ctx))
		if err != nil {
			return val, err
		}
		c.lru.Add(slotKey, entry[T]{value: val, storedAt: c.now()})
		return val, nil
	})
	val, _ := v.(T)
	return val, err
}

func (c *MemoryCache[T]) Invalidate(_ context.Context) error {
	c.group.Forget(slotKey)
	c.lru.Purge()
	return nil
}

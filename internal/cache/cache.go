// Package cache provides the short-lived, single-slot cache that sits in
// front of the draw-source aggregator. The aggregator stays pure; callers
// inject a Cache and hand it the refresh function.
//
// Implementations include in-memory (golang-lru expirable) and Redis. Both
// collapse concurrent misses into one refresh and never cache a failed one.
package cache

import (
	"context"
	"time"
)

// RefreshFunc produces a fresh value. A non-nil error means the value must
// not be cached; it is still returned to the caller alongside the error.
//
// Concurrent callers share one run, so the function receives a context that
// carries the first caller's values but not its cancellation.
type RefreshFunc[T any] func(ctx context.Context) (T, error)

// Cache is a process-wide single-slot cache.
type Cache[T any] interface {
	// GetOrRefresh returns the cached value when it is younger than ttl,
	// otherwise runs refresh. The bool reports a cache hit.
	GetOrRefresh(ctx context.Context, ttl time.Duration, refresh RefreshFunc[T]) (T, bool, error)

	// Refresh runs refresh unconditionally and replaces the cached value only
	// when it succeeds. A failure leaves the current value in place.
	Refresh(ctx context.Context, ttl time.Duration, refresh RefreshFunc[T]) (T, error)

	// Invalidate drops the cached value.
	Invalidate(ctx context.Context) error
}

// slotKey names the single slot inside each backend.
const slotKey = "snapshot"

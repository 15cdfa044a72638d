package cache

import (
	"context"
	"time"

	Logger "github.com/jotagep/redditlens/utils/log"
)

// ReadThrough is a generic read-through cache backed by an external store.
// On Get it consults Lookup first and serves the stored value when it is
// younger than TTL, otherwise it calls Fetch against the source of truth,
// writes the result back through Store and returns it.
//
// Failure semantics follow the cache-aside contract of this service:
// a Lookup error is treated as a miss (fail open to fetch), a Store error is
// logged and swallowed (the freshly fetched value is still returned), and a
// Fetch error always propagates to the caller.
type ReadThrough[K comparable, V any] struct {
	// TTL is the maximum age of a stored value before it is considered stale.
	TTL time.Duration

	// Lookup returns the stored value, the time it was stored at and whether
	// it was found at all.
	Lookup func(ctx context.Context, key K) (V, time.Time, bool, error)

	// Store persists a freshly fetched value. The now argument is the time
	// the value was fetched at and becomes its freshness timestamp.
	Store func(ctx context.Context, key K, value V, now time.Time) error

	// Fetch retrieves the value from the source of truth.
	Fetch func(ctx context.Context, key K) (V, error)

	// Now overrides the clock, for testing. Defaults to time.Now.
	Now func() time.Time
}

func (c *ReadThrough[K, V]) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Get returns the cached value for key if fresh, otherwise fetches, persists
// and returns the new value.
func (c *ReadThrough[K, V]) Get(ctx context.Context, key K) (V, error) {
	value, storedAt, found, err := c.Lookup(ctx, key)
	if err != nil {
		Logger.Log.Warnf("cache lookup failed for key %v, falling back to fetch: %v", key, err)
	} else if found && c.now().Sub(storedAt) < c.TTL {
		return value, nil
	}
	return c.Refresh(ctx, key)
}

// Refresh fetches from the source of truth unconditionally and writes the
// result back on a best effort basis.
func (c *ReadThrough[K, V]) Refresh(ctx context.Context, key K) (V, error) {
	var zero V
	value, err := c.Fetch(ctx, key)
	if err != nil {
		return zero, err
	}
	if err := c.Store(ctx, key, value, c.now()); err != nil {
		Logger.Log.Errorf("cache write failed for key %v, serving fetched value anyway: %v", key, err)
	}
	return value, nil
}

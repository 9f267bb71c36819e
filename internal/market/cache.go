package market

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Mithun-VK/trading-chatbot/internal/metrics"
)

const (
	DefaultQuoteTTL = 60 * time.Second
	// sweepFactor bounds memory: entries older than sweepFactor*ttl are dropped by Sweep.
	sweepFactor = 5
	// flightTimeout bounds a shared fetch once it no longer follows any caller's
	// context. It covers a full limiter window plus the upstream round trip.
	flightTimeout = 2 * time.Minute
)

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// Cache is a process-local, time-boxed key/value store.
//
// Entries are valid while now - insertedAt < ttl. Expired entries stay in the
// map until they are replaced by the next fetch, swept, or cleared. Concurrent
// misses for the same key share one fetch (single-flight); a failed fetch is
// returned to every waiter and leaves any previous entry untouched.
type Cache[V any] struct {
	name  string
	ttl   time.Duration
	clock Clock

	mu    sync.RWMutex
	items map[string]entry[V]

	group singleflight.Group
}

// NewCache creates an empty cache. name labels the cache in metrics.
func NewCache[V any](name string, ttl time.Duration, clock Clock) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Cache[V]{
		name:  name,
		ttl:   ttl,
		clock: clock,
		items: make(map[string]entry[V]),
	}
}

// TTL returns the validity window of entries.
func (c *Cache[V]) TTL() time.Duration { return c.ttl }

// Get returns the value stored under key if it is still fresh.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || c.clock.Now().Sub(e.insertedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores v under key, replacing any previous entry as a whole.
func (c *Cache[V]) Set(key string, v V) {
	c.mu.Lock()
	c.items[key] = entry[V]{value: v, insertedAt: c.clock.Now()}
	c.mu.Unlock()
}

// GetOrFetch returns the fresh value for key, or calls fetch, stores its result
// and returns it. Fetch errors propagate uncached.
//
// The shared fetch runs on a context detached from the caller that started it,
// so one caller going away does not fail the others waiting on the same key.
// Each caller still returns early when its own ctx is done.
func (c *Cache[V]) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		metrics.CacheLookups.WithLabelValues(c.name, "hit").Inc()
		return v, nil
	}
	metrics.CacheLookups.WithLabelValues(c.name, "miss").Inc()

	ch := c.group.DoChan(key, func() (any, error) {
		// a flight that finished just before this one may already have stored it
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// Sweep removes entries older than five times the ttl and reports how many were dropped.
func (c *Cache[V]) Sweep() int {
	cutoff := c.clock.Now().Add(-sweepFactor * c.ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.items {
		if !e.insertedAt.After(cutoff) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// StartSweeper runs Sweep every interval until ctx is done.
func (c *Cache[V]) StartSweeper(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = c.ttl
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep()
			}
		}
	}()
}

// Clear drops every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.items = make(map[string]entry[V])
	c.mu.Unlock()
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

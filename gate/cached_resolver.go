package gate

import (
	"context"
	"sync"
	"time"
)

// CachedResolver memoizes another Resolver for a fixed TTL.
type CachedResolver[U comparable] struct {
	inner Resolver[U]
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[U]cachedProfile
}

type cachedProfile struct {
	profile Profile
	expires time.Time
}

func NewCachedResolver[U comparable](inner Resolver[U], ttl time.Duration) *CachedResolver[U] {
	return &CachedResolver[U]{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: map[U]cachedProfile{},
	}
}

// WithClock replaces the time source; used by tests.
func (c *CachedResolver[U]) WithClock(now func() time.Time) *CachedResolver[U] {
	c.now = now
	return c
}

func (c *CachedResolver[U]) Resolve(ctx context.Context, subject U) (Profile, error) {
	c.mu.RLock()
	e, ok := c.entries[subject]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expires) {
		return e.profile, nil
	}

	p, err := c.inner.Resolve(ctx, subject)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[subject] = cachedProfile{profile: p, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return p, nil
}

// Invalidate drops one subject, e.g. after its profile assignment changed.
func (c *CachedResolver[U]) Invalidate(subject U) {
	c.mu.Lock()
	delete(c.entries, subject)
	c.mu.Unlock()
}

// InvalidateAll drops every entry, e.g. after a profile's permissions changed.
func (c *CachedResolver[U]) InvalidateAll() {
	c.mu.Lock()
	c.entries = map[U]cachedProfile{}
	c.mu.Unlock()
}

// Len reports the number of cached subjects.
func (c *CachedResolver[U]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

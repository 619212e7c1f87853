// Package cache stores short-lived computed results, in Redis when one is
// configured and in process memory otherwise.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/diewo77/go-bistro/internal/logger"
)

const keyNamespace = "bistro"

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is the surface the services depend on.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// IncrWithTTL increments a counter and starts its TTL on the first hit.
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Key joins parts under the application namespace, skipping empty parts.
func Key(parts ...string) string {
	clean := []string{keyNamespace}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		clean = append(clean, p)
	}
	return strings.Join(clean, ":")
}

// Remember returns the cached JSON value at key or computes, stores and
// returns it. Cache failures are logged and never hide a successful
// computation. log may be nil.
func Remember[T any](ctx context.Context, store Store, log *logger.Logger, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	if log == nil {
		log = logger.Nop()
	}
	var out T
	if store != nil && ttl > 0 {
		raw, err := store.Get(ctx, key)
		switch {
		case err == nil:
			if json.Unmarshal(raw, &out) == nil {
				return out, nil
			}
		case !errors.Is(err, ErrMiss):
			log.Warn(log.WithFields(ctx, map[string]any{"key": key, "error": err.Error()}), "cache.get_failed")
		}
	}
	out, err := compute(ctx)
	if err != nil {
		return out, err
	}
	if store != nil && ttl > 0 {
		raw, err := json.Marshal(out)
		if err == nil {
			err = store.Set(ctx, key, raw, ttl)
		}
		if err != nil {
			log.Warn(log.WithFields(ctx, map[string]any{"key": key, "error": err.Error()}), "cache.set_failed")
		}
	}
	return out, nil
}

// FixedWindowAllow counts a hit for scope and reports whether it is within
// limit for the current window.
func FixedWindowAllow(ctx context.Context, store Store, scope string, limit int64, window time.Duration) (bool, int64, error) {
	count, err := store.IncrWithTTL(ctx, Key("rate_limit", scope), window)
	if err != nil {
		return false, 0, err
	}
	return count <= limit, count, nil
}

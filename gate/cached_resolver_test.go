package gate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/go-bistro/gate"
)

type countingResolver struct {
	inner *gate.MapResolver[uint]
	calls int
	err   error
}

func (c *countingResolver) Resolve(ctx context.Context, id uint) (gate.Profile, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.Resolve(ctx, id)
}

func TestCachedResolverServesFromCache(t *testing.T) {
	inner := &countingResolver{inner: gate.NewMapResolver[uint]()}
	inner.inner.Set(1, gate.NewStaticProfile(1, "cashier"))
	cached := gate.NewCachedResolver[uint](inner, time.Minute)

	for i := 0; i < 3; i++ {
		p, err := cached.Resolve(context.Background(), 1)
		if err != nil || p.Name() != "cashier" {
			t.Fatalf("unexpected resolve result %v %v", p, err)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}
}

func TestCachedResolverExpiresWithClock(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	inner := &countingResolver{inner: gate.NewMapResolver[uint]()}
	inner.inner.Set(1, gate.NewStaticProfile(1, "cashier"))
	cached := gate.NewCachedResolver[uint](inner, time.Minute).WithClock(func() time.Time { return now })

	_, _ = cached.Resolve(context.Background(), 1)
	inner.inner.Set(1, gate.NewStaticProfile(1, "manager"))

	now = now.Add(30 * time.Second)
	p, _ := cached.Resolve(context.Background(), 1)
	if p.Name() != "cashier" {
		t.Fatalf("expected cached profile before expiry, got %s", p.Name())
	}

	now = now.Add(time.Minute)
	p, _ = cached.Resolve(context.Background(), 1)
	if p.Name() != "manager" {
		t.Fatalf("expected refreshed profile after expiry, got %s", p.Name())
	}
}

func TestCachedResolverInvalidate(t *testing.T) {
	inner := &countingResolver{inner: gate.NewMapResolver[uint]()}
	inner.inner.Set(1, gate.NewStaticProfile(1, "cashier"))
	inner.inner.Set(2, gate.NewStaticProfile(2, "viewer"))
	cached := gate.NewCachedResolver[uint](inner, time.Hour)

	_, _ = cached.Resolve(context.Background(), 1)
	_, _ = cached.Resolve(context.Background(), 2)
	if cached.Len() != 2 {
		t.Fatalf("expected 2 cached entries, got %d", cached.Len())
	}

	cached.Invalidate(1)
	if cached.Len() != 1 {
		t.Fatalf("expected 1 cached entry after Invalidate, got %d", cached.Len())
	}
	cached.InvalidateAll()
	if cached.Len() != 0 {
		t.Fatalf("expected empty cache after InvalidateAll, got %d", cached.Len())
	}
}

func TestCachedResolverDoesNotCacheErrors(t *testing.T) {
	inner := &countingResolver{inner: gate.NewMapResolver[uint](), err: errors.New("db down")}
	cached := gate.NewCachedResolver[uint](inner, time.Hour)

	if _, err := cached.Resolve(context.Background(), 1); err == nil {
		t.Fatal("expected error")
	}
	if cached.Len() != 0 {
		t.Fatal("errors must not be cached")
	}
}

package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/diewo77/go-bistro/internal/config"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []string
	gets        int
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: map[string]string{}, incr: map[string]int64{}}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprint(v)
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	m.gets++
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Incr(_ context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(_ context.Context, key string, _ time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, key)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(m.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

type summary struct {
	Revenue float64 `json:"revenue"`
}

func TestKey(t *testing.T) {
	assert.Equal(t, "bistro:finance:summary", Key("finance", "summary"))
	assert.Equal(t, "bistro:rate_limit:ip", Key("rate_limit", "", " ip "))
	assert.Equal(t, "bistro", Key())
}

func TestRememberWithRedis(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	store := &RedisStore{store: mock}
	calls := 0
	compute := func(context.Context) (summary, error) {
		calls++
		return summary{Revenue: 42.5}, nil
	}

	got, err := Remember(ctx, store, nil, Key("finance", "summary"), time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 42.5, got.Revenue)
	got, err = Remember(ctx, store, nil, Key("finance", "summary"), time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 42.5, got.Revenue)
	assert.Equal(t, 1, calls)
	assert.Equal(t, `{"revenue":42.5}`, mock.data["bistro:finance:summary"])

	require.NoError(t, store.Del(ctx, Key("finance", "summary")))
	_, err = store.Get(ctx, Key("finance", "summary"))
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRememberPropagatesComputeError(t *testing.T) {
	store := NewMemory()
	boom := errors.New("boom")
	_, err := Remember(context.Background(), store, nil, "k", time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	_, err = store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRememberZeroTTLBypassesStore(t *testing.T) {
	store := NewMemory()
	calls := 0
	for i := 0; i < 2; i++ {
		_, err := Remember(context.Background(), store, nil, "k", 0, func(context.Context) (int, error) {
			calls++
			return calls, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemory().WithClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
	v, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", string(v))

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	store := &RedisStore{store: mock}

	for i := 1; i <= 2; i++ {
		ok, count, err := FixedWindowAllow(ctx, store, "login:1.2.3.4", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.EqualValues(t, i, count)
	}
	ok, _, err := FixedWindowAllow(ctx, store, "login:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, mock.expireCalls, 1)
}

func TestMemoryCounterResetsAfterWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemory().WithClock(func() time.Time { return now })

	ok, _, _ := FixedWindowAllow(ctx, store, "x", 1, time.Minute)
	assert.True(t, ok)
	ok, _, _ = FixedWindowAllow(ctx, store, "x", 1, time.Minute)
	assert.False(t, ok)
	now = now.Add(2 * time.Minute)
	ok, count, _ := FixedWindowAllow(ctx, store, "x", 1, time.Minute)
	assert.True(t, ok)
	assert.EqualValues(t, 1, count)
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:pw@localhost:6380/2", PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 3})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
}

type failingStore struct {
	*MemoryStore
}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func TestRememberLogsFailedWrites(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf})
	calls := 0
	compute := func(context.Context) (int, error) {
		calls++
		return 7, nil
	}
	store := failingStore{MemoryStore: NewMemory()}

	for i := 0; i < 2; i++ {
		got, err := Remember(context.Background(), store, log, "k", time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, 7, got)
	}
	assert.Equal(t, 2, calls)
	assert.Contains(t, buf.String(), "cache.set_failed")
	assert.Contains(t, buf.String(), "connection refused")
	assert.Contains(t, buf.String(), `"key":"k"`)
}

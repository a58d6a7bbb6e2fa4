package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSet(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	payload := []byte("v1")
	require.NoError(t, m.Set(ctx, "k", payload, time.Hour))
	payload[0] = 'x'

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), got)

	now = now.Add(59 * time.Minute)
	_, ok, _ = m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok, "entry expires exactly at its TTL")
	assert.Empty(t, m.entries)
}

type fakeRedis struct {
	data   map[string]string
	ttl    map[string]time.Duration
	getErr error
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedis_GetSet(t *testing.T) {
	fake := &fakeRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
	r := &Redis{client: fake, prefix: "jobdash:"}
	ctx := context.Background()

	_, ok, err := r.Get(ctx, "openfda:aspirin:100")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "openfda:aspirin:100", []byte(`[]`), time.Hour))
	assert.Equal(t, time.Hour, fake.ttl["jobdash:openfda:aspirin:100"])

	got, ok, err := r.Get(ctx, "openfda:aspirin:100")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`[]`), got)
}

func TestRedis_GetError(t *testing.T) {
	fake := &fakeRedis{getErr: errors.New("connection refused")}
	r := &Redis{client: fake}

	_, ok, err := r.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNonPositiveTTLStoresNothing(t *testing.T) {
	ctx := context.Background()

	fake := &fakeRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
	r := &Redis{client: fake, prefix: "jobdash:"}
	require.NoError(t, r.Set(ctx, "k", []byte("v"), 0))
	assert.Empty(t, fake.data, "redis would persist a zero-expiry key")

	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", []byte("v"), -time.Second))
	assert.Equal(t, 0, m.Len())
}

func TestMemory_SetSweepsExpiredWhenFull(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.maxEntries = 3
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, m.Set(ctx, "c", []byte("3"), time.Hour))

	now = now.Add(2 * time.Minute)
	require.NoError(t, m.Set(ctx, "d", []byte("4"), time.Hour))

	assert.Equal(t, 2, m.Len())
	_, ok, _ := m.Get(ctx, "c")
	assert.True(t, ok)
	_, ok, _ = m.Get(ctx, "d")
	assert.True(t, ok)
}

func TestMemory_EvictsSoonestExpiringWhenFull(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.maxEntries = 2
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "long", []byte("1"), time.Hour))
	require.NoError(t, m.Set(ctx, "short", []byte("2"), time.Minute))
	require.NoError(t, m.Set(ctx, "new", []byte("3"), time.Hour))

	assert.Equal(t, 2, m.Len())
	_, ok, _ := m.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "long")
	assert.True(t, ok)

	require.NoError(t, m.Set(ctx, "long", []byte("overwrite"), time.Hour))
	assert.Equal(t, 2, m.Len(), "overwriting an existing key never evicts")
}

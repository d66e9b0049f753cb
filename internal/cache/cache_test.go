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

type fakeKV struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failGet bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.failGet {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type payload struct {
	Count int64 `json:"count"`
}

func TestCache_RoundTrip(t *testing.T) {
	kv := newFakeKV()
	c := New(kv, "nftrental", time.Minute)
	ctx := context.Background()

	var got payload
	hit, err := c.Get(ctx, "stats", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "stats", payload{Count: 3}))
	assert.Equal(t, time.Minute, kv.ttls["nftrental:stats"])

	hit, err = c.Get(ctx, "stats", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(3), got.Count)

	require.NoError(t, c.Invalidate(ctx, "stats"))
	hit, _ = c.Get(ctx, "stats", &got)
	assert.False(t, hit)
}

func TestCache_GetError(t *testing.T) {
	kv := newFakeKV()
	kv.failGet = true
	c := New(kv, "nftrental", time.Minute)

	_, err := c.Get(context.Background(), "stats", &payload{})
	assert.Error(t, err)
}

func TestQueryKey_OrderIndependent(t *testing.T) {
	a := QueryKey("search", map[string]string{"contract": "0xc3", "page": "1"})
	b := QueryKey("search", map[string]string{"page": "1", "contract": "0xc3"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, QueryKey("search", map[string]string{"page": "2", "contract": "0xc3"}))
}

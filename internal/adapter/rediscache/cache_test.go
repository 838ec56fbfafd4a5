package rediscache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

// fakeRedis is an in-memory Commander that records TTLs.
type fakeRedis struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failErr != nil {
		return redis.NewStringResult("", f.failErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if f.failErr != nil {
		return redis.NewStatusResult("", f.failErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Ping(_ context.Context) *redis.StatusCmd {
	if f.failErr != nil {
		return redis.NewStatusResult("", f.failErr)
	}
	return redis.NewStatusResult("PONG", nil)
}

var _ Commander = (*redis.Client)(nil)

func newTestCache(rdb Commander) *FeedCache {
	return NewFeedCache(rdb, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFeedCache_RoundTrip(t *testing.T) {
	rdb := newFakeRedis()
	c := newTestCache(rdb)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "disaster")
	require.NoError(t, err)
	assert.False(t, ok)

	pos := domain.Geo{Lat: 21.3, Lng: -157.8}
	items := []domain.FeedItem{{
		ID:        "nws|a",
		Title:     "High Surf Advisory",
		Published: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Source:    "NWS Alerts API",
		Position:  &pos,
	}}
	require.NoError(t, c.Set(ctx, "disaster", items))
	assert.Equal(t, time.Minute, rdb.ttls["oceaneye:feed:disaster"])

	got, ok, err := c.Get(ctx, "disaster")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, items, got)
}

func TestFeedCache_Malformed(t *testing.T) {
	rdb := newFakeRedis()
	rdb.data["oceaneye:feed:alerts"] = "{not json"

	_, ok, err := newTestCache(rdb).Get(context.Background(), "alerts")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFeedCache_Errors(t *testing.T) {
	rdb := newFakeRedis()
	rdb.failErr = errors.New("connection refused")
	c := newTestCache(rdb)
	ctx := context.Background()

	_, _, err := c.Get(ctx, "alerts")
	require.Error(t, err)
	require.Error(t, c.Set(ctx, "alerts", nil))
	require.Error(t, c.CheckReadiness(ctx))
}

func TestOpen_EmptyAddr(t *testing.T) {
	assert.Nil(t, Open("", "", 0))

	rdb := Open("localhost:6379", "", 2)
	require.NotNil(t, rdb)
	assert.Equal(t, 2, rdb.Options().DB)
	require.NoError(t, rdb.Close())
}

func TestFeedCache_Close(t *testing.T) {
	assert.NoError(t, newTestCache(newFakeRedis()).Close())

	rdb := Open("localhost:6379", "", 0)
	c := NewFeedCache(rdb, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, c.Close())
	assert.Error(t, rdb.Ping(context.Background()).Err())
}

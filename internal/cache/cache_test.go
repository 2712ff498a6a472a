package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedEvent struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(nil)
		_ = rdb.Close()
		mr.Close()
	})
	return mr
}

func TestEventKey(t *testing.T) {
	assert.Equal(t, "event:7", EventKey(7))
}

func TestAside_FetchesOnceThenHits(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedEvent) func() error {
		return func() error {
			calls++
			*dest = cachedEvent{ID: 1, Title: "Jazz"}
			return nil
		}
	}

	var first cachedEvent
	require.NoError(t, Aside(ctx, EventKey(1), &first, EventTTL, fetch(&first)))
	assert.Equal(t, "Jazz", first.Title)
	assert.True(t, mr.Exists(EventKey(1)))

	var second cachedEvent
	require.NoError(t, Aside(ctx, EventKey(1), &second, EventTTL, fetch(&second)))
	assert.Equal(t, "Jazz", second.Title)
	assert.Equal(t, 1, calls)

	InvalidateEvent(ctx, 1)
	assert.False(t, mr.Exists(EventKey(1)))

	var third cachedEvent
	require.NoError(t, Aside(ctx, EventKey(1), &third, EventTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := withMiniredis(t)
	boom := errors.New("boom")

	var dest cachedEvent
	err := Aside(context.Background(), EventKey(2), &dest, EventTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(EventKey(2)))
}

func TestAside_WithoutRedisFallsThrough(t *testing.T) {
	SetClient(nil)

	calls := 0
	var dest cachedEvent
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), EventKey(3), &dest, EventTTL, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
	Invalidate(context.Background(), EventKey(3))
}

func TestAside_RedisDownFallsBackToFetch(t *testing.T) {
	mr := withMiniredis(t)
	mr.Close()

	calls := 0
	var dest cachedEvent
	err := Aside(context.Background(), EventKey(4), &dest, EventTTL, func() error {
		calls++
		dest.Title = "from db"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "from db", dest.Title)
}

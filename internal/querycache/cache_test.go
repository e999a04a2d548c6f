package querycache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hilthontt/parley/internal/querycache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newCache(t *testing.T, mutate func(*querycache.Options)) (*querycache.Cache, *clock) {
	t.Helper()

	clk := &clock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	opts := querycache.DefaultOptions()
	opts.CleanupInterval = 0
	opts.Now = clk.Now
	if mutate != nil {
		mutate(&opts)
	}

	c := querycache.New(opts)
	t.Cleanup(c.Close)
	return c, clk
}

func TestTagMatching(t *testing.T) {
	rooms := querycache.T(querycache.TagRooms)
	r1 := querycache.T(querycache.TagRoom, "r1")
	r2 := querycache.T(querycache.TagRoom, "r2")

	assert.True(t, rooms.Matches(querycache.T(querycache.TagRooms, "joined")))
	assert.True(t, querycache.T(querycache.TagRoom).Matches(r1))
	assert.True(t, r1.Matches(r1))
	assert.False(t, r1.Matches(r2))
	assert.False(t, rooms.Matches(r1))
	assert.Equal(t, "Room:r1", r1.String())
}

func TestTTLExpiry(t *testing.T) {
	c, clk := newCache(t, func(o *querycache.Options) { o.TTL = time.Second })

	c.Set("k", 1)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	clk.Advance(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestLRUEviction(t *testing.T) {
	c, clk := newCache(t, func(o *querycache.Options) { o.MaxItems = 2 })

	c.Set("a", 1)
	clk.Advance(time.Millisecond)
	c.Set("b", 2)
	clk.Advance(time.Millisecond)
	_, _ = c.Get("a")
	clk.Advance(time.Millisecond)
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Count())
	assert.Equal(t, int64(1), c.GetStats().Evictions)
}

func TestInvalidateNotifiesSubscribers(t *testing.T) {
	c, _ := newCache(t, nil)

	c.Set("rooms:joined", "j", querycache.T(querycache.TagRooms, "joined"))
	c.Set("rooms:public", "p", querycache.T(querycache.TagRooms, "public"))
	c.Set("room:r1", "r", querycache.T(querycache.TagRoom, "r1"))

	var gotTags []querycache.Tag
	var gotKeys []string
	unsubscribe := c.Subscribe(func(tags []querycache.Tag, keys []string) {
		gotTags = tags
		gotKeys = keys
	})
	defer unsubscribe()

	dropped := c.Invalidate(querycache.T(querycache.TagRooms))
	assert.ElementsMatch(t, []string{"rooms:joined", "rooms:public"}, dropped)
	assert.ElementsMatch(t, dropped, gotKeys)
	assert.Equal(t, []querycache.Tag{querycache.T(querycache.TagRooms)}, gotTags)

	_, ok := c.Get("room:r1")
	assert.True(t, ok)
}

func TestFetchSharesInFlightCalls(t *testing.T) {
	c, _ := newCache(t, nil)

	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(ctx context.Context) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"r1"}, nil
	}

	var wg sync.WaitGroup
	results := make([][]string, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := querycache.Fetch(context.Background(), c, "rooms", nil, fn)
			assert.NoError(t, err)
			results[i] = res
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, res := range results {
		assert.Equal(t, []string{"r1"}, res)
	}

	res, err := querycache.Fetch(context.Background(), c, "rooms", nil, fn)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, res)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchErrorIsNotCached(t *testing.T) {
	c, _ := newCache(t, nil)

	boom := errors.New("boom")
	_, err := querycache.Fetch(context.Background(), c, "k", nil, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Count())
}

func TestFetchStartedBeforeInvalidateIsNotCached(t *testing.T) {
	c, _ := newCache(t, nil)
	tag := querycache.T(querycache.TagRooms)

	_, err := querycache.Fetch(context.Background(), c, "rooms", []querycache.Tag{tag}, func(context.Context) (int, error) {
		c.Invalidate(tag)
		return 1, nil
	})
	require.NoError(t, err)

	_, ok := c.Get("rooms")
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	c, _ := newCache(t, nil)

	c.Set("a", 1)
	c.Reset()
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, querycache.Stats{}, c.GetStats())
}

// Package querycache memoizes REST query results under string keys, each
// labelled with tags so that mutations can invalidate every dependent query
// at once.
package querycache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type EvictionPolicy int

const (
	// LRU evicts the least recently used entry
	LRU EvictionPolicy = iota
	// FIFO evicts the oldest entry
	FIFO
)

type entry struct {
	value       any
	tags        []Tag
	expiration  int64
	created     time.Time
	lastAccess  time.Time
	accessCount int
}

func (e entry) expired(now time.Time) bool {
	return e.expiration != 0 && now.UnixNano() > e.expiration
}

type Stats struct {
	Hits          int64
	Misses        int64
	Evictions     int64
	Invalidations int64
}

type Options struct {
	// TTL bounds how long an entry is served without a refetch. Zero keeps
	// entries until invalidated.
	TTL             time.Duration
	CleanupInterval time.Duration
	MaxItems        int
	EvictionPolicy  EvictionPolicy
	OnEvicted       func(key string, value any)
	Now             func() time.Time
}

func DefaultOptions() Options {
	return Options{
		TTL:             time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        256,
		EvictionPolicy:  LRU,
	}
}

// InvalidationFunc receives the tags passed to Invalidate and the keys that
// were dropped because of them.
type InvalidationFunc func(tags []Tag, keys []string)

type Cache struct {
	mu      sync.RWMutex
	items   map[string]entry
	opts    Options
	stats   Stats
	epoch   uint64
	group   singleflight.Group
	subs    map[int]InvalidationFunc
	nextSub int

	stop      chan struct{}
	closeOnce sync.Once
}

func New(opts Options) *Cache {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Cache{
		items: make(map[string]entry),
		opts:  opts,
		subs:  make(map[int]InvalidationFunc),
		stop:  make(chan struct{}),
	}

	if opts.CleanupInterval > 0 {
		go c.startCleanupTimer()
	}

	return c
}

func (c *Cache) startCleanupTimer() {
	ticker := time.NewTicker(c.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Now()
	for key, e := range c.items {
		if e.expired(now) {
			c.deleteEntry(key)
		}
	}
}

// evict makes room for one more entry according to the eviction policy.
func (c *Cache) evict() {
	if c.opts.MaxItems <= 0 || len(c.items) < c.opts.MaxItems {
		return
	}

	var victim string
	var oldest time.Time

	for k, e := range c.items {
		ts := e.lastAccess
		if c.opts.EvictionPolicy == FIFO {
			ts = e.created
		}
		if victim == "" || ts.Before(oldest) {
			victim = k
			oldest = ts
		}
	}

	if victim != "" {
		c.deleteEntry(victim)
		c.stats.Evictions++
	}
}

func (c *Cache) deleteEntry(key string) {
	if c.opts.OnEvicted != nil {
		if e, ok := c.items[key]; ok {
			c.opts.OnEvicted(key, e.value)
		}
	}
	delete(c.items, key)
}

// Set stores value under key with the given tags.
func (c *Cache) Set(key string, value any, tags ...Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value, tags)
}

func (c *Cache) set(key string, value any, tags []Tag) {
	if _, exists := c.items[key]; !exists {
		c.evict()
	}

	now := c.opts.Now()
	var exp int64
	if c.opts.TTL > 0 {
		exp = now.Add(c.opts.TTL).UnixNano()
	}

	c.items[key] = entry{
		value:      value,
		tags:       append([]Tag(nil), tags...),
		expiration: exp,
		created:    now,
		lastAccess: now,
	}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.items[key]
	if !found {
		c.stats.Misses++
		return nil, false
	}

	now := c.opts.Now()
	if e.expired(now) {
		c.deleteEntry(key)
		c.stats.Misses++
		return nil, false
	}

	e.lastAccess = now
	e.accessCount++
	c.items[key] = e
	c.stats.Hits++

	return e.value, true
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteEntry(key)
}

// Invalidate drops every entry carrying a tag that matches one of tags and
// notifies subscribers so that visible queries refetch. Fetches already in
// flight complete but their results are not cached.
func (c *Cache) Invalidate(tags ...Tag) []string {
	if len(tags) == 0 {
		return nil
	}

	c.mu.Lock()
	var dropped []string
	for key, e := range c.items {
		if anyMatch(e.tags, tags) {
			c.deleteEntry(key)
			dropped = append(dropped, key)
		}
	}
	c.epoch++
	c.stats.Invalidations++
	subs := c.subscribers()
	c.mu.Unlock()

	for _, fn := range subs {
		fn(tags, dropped)
	}

	return dropped
}

// Reset empties the cache without notifying subscribers.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]entry)
	c.epoch++
	c.stats = Stats{}
}

// Subscribe registers fn for invalidations. fn must not block.
func (c *Cache) Subscribe(fn InvalidationFunc) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Cache) subscribers() []InvalidationFunc {
	out := make([]InvalidationFunc, 0, len(c.subs))
	for _, fn := range c.subs {
		out = append(out, fn)
	}
	return out
}

func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.stop) })
}

// Fetch returns the cached value for key or calls fn to load it. Concurrent
// callers for the same key share a single call of fn.
func Fetch[T any](ctx context.Context, c *Cache, key string, tags []Tag, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		epoch := c.epoch
		c.mu.RUnlock()

		res, err := fn(ctx)
		if err != nil {
			return res, err
		}

		c.mu.Lock()
		if c.epoch == epoch {
			c.set(key, res, tags)
		}
		c.mu.Unlock()

		return res, nil
	})

	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Shared collapses concurrent calls for key like Fetch but never stores the
// result. It suits queries whose live state is owned by a reconciler.
func Shared[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	v, err, _ := c.group.Do("shared:"+key, func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Package requestcache provides an in-process TTL cache with read-through,
// stale-while-revalidate and retry helpers for expensive read paths.
package requestcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Event identifies a cache lookup outcome, reported to the observer.
type Event int

const (
	EventHit Event = iota
	EventMiss
	EventStale
)

// Entry is a stored value with its lifecycle timestamps. An entry is fresh
// while now <= ExpiresAt; past that it is stale but still retrievable via
// GetStale until a Get or ClearExpired sweep removes it.
type Entry struct {
	Data      any
	Timestamp time.Time
	ExpiresAt time.Time
}

type Options struct {
	DefaultTTL time.Duration
	Logger     *zap.Logger
	Clock      func() time.Time
	Observer   func(Event)
}

type Option func(*Options)

func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *Options) { o.DefaultTTL = ttl }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithClock overrides the time source, used by tests to control expiry.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) { o.Clock = clock }
}

// WithObserver registers a callback invoked on every WithCache lookup outcome.
func WithObserver(fn func(Event)) Option {
	return func(o *Options) { o.Observer = fn }
}

// Cache is a mutex-guarded in-process key-value store. Entries never survive
// a process restart. Cold misses through WithCache are coalesced per key via
// singleflight; stale revalidations are deduplicated via an in-flight key set.
type Cache struct {
	mu           sync.Mutex
	entries      map[string]Entry
	revalidating map[string]struct{}
	sf           singleflight.Group
	defaultTTL   time.Duration
	logger       *zap.Logger
	now          func() time.Time
	observer     func(Event)
}

const defaultTTL = 5 * time.Minute

// New creates a cache instance. The caller owns its lifecycle (Clear,
// ClearExpired); there is no package-level singleton.
func New(opts ...Option) *Cache {
	options := &Options{
		DefaultTTL: defaultTTL,
		Logger:     zap.NewNop(),
		Clock:      time.Now,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.DefaultTTL <= 0 {
		options.DefaultTTL = defaultTTL
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.Clock == nil {
		options.Clock = time.Now
	}
	return &Cache{
		entries:      make(map[string]Entry),
		revalidating: make(map[string]struct{}),
		defaultTTL:   options.DefaultTTL,
		logger:       options.Logger.Named("requestcache"),
		now:          options.Clock,
		observer:     options.Observer,
	}
}

// Get returns the value for key if it is still fresh. An expired entry is
// purged and reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.ExpiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.Data, true
}

// GetStale returns the value for key even past expiry. The second return
// reports presence, the third whether the value is stale.
func (c *Cache) GetStale(key string) (any, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, false
	}
	return entry.Data, true, c.now().After(entry.ExpiresAt)
}

// Set stores data under key. A non-positive ttl falls back to the default.
func (c *Cache) Set(key string, data any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{
		Data:      data,
		Timestamp: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// ClearExpired sweeps every expired entry and returns how many were removed.
func (c *Cache) ClearExpired() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of entries currently held, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// lookup is the non-purging read used by WithCache: it distinguishes fresh,
// stale and absent without removing anything, so a stale entry can still be
// served under stale-while-revalidate.
func (c *Cache) lookup(key string) (any, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, false
	}
	return entry.Data, true, c.now().After(entry.ExpiresAt)
}

func (c *Cache) observe(e Event) {
	if c.observer != nil {
		c.observer(e)
	}
}

// revalidate repopulates key in the background. At most one revalidation per
// key is in flight; errors are logged and swallowed, leaving the stale value
// in place.
func (c *Cache) revalidate(key string, ttl time.Duration, fn func(context.Context) (any, error)) {
	c.mu.Lock()
	if _, inflight := c.revalidating[key]; inflight {
		c.mu.Unlock()
		return
	}
	c.revalidating[key] = struct{}{}
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.revalidating, key)
			c.mu.Unlock()
		}()

		value, err := fn(context.Background())
		if err != nil {
			c.logger.Warn("background revalidation failed",
				zap.String("key", key),
				zap.Error(err))
			return
		}
		c.Set(key, value, ttl)
		c.logger.Debug("cache revalidated in background", zap.String("key", key))
	}()
}

// FetchFunc produces the value for a cache key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// FetchOptions control a single WithCache invocation.
type FetchOptions struct {
	TTL                  time.Duration
	BypassCache          bool
	StaleWhileRevalidate bool
}

// WithCache wraps fn in a read-through cache lookup.
//
// BypassCache always invokes fn and stores the result. A fresh hit returns
// without invoking fn. With StaleWhileRevalidate, a stale hit is returned
// immediately while fn repopulates the entry in the background. Otherwise a
// miss (or a stale entry without revalidation) invokes fn through
// singleflight, so concurrent callers of the same cold key share one fetch.
func WithCache[T any](ctx context.Context, c *Cache, key string, opts FetchOptions, fn FetchFunc[T]) (T, error) {
	var zero T

	if opts.BypassCache {
		value, err := fn(ctx)
		if err != nil {
			return zero, err
		}
		c.Set(key, value, opts.TTL)
		return value, nil
	}

	data, ok, stale := c.lookup(key)
	if ok && !stale {
		if value, isT := data.(T); isT {
			c.observe(EventHit)
			c.logger.Debug("cache hit", zap.String("key", key))
			return value, nil
		}
		// A type clash means the key is shared across shapes; refetch.
		c.Delete(key)
	}

	if ok && stale {
		if opts.StaleWhileRevalidate {
			if value, isT := data.(T); isT {
				c.observe(EventStale)
				c.logger.Debug("serving stale value", zap.String("key", key))
				c.revalidate(key, opts.TTL, func(bgCtx context.Context) (any, error) {
					return fn(bgCtx)
				})
				return value, nil
			}
		}
		c.Delete(key)
	}

	c.observe(EventMiss)
	v, err, shared := c.sf.Do(key, func() (any, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, value, opts.TTL)
		return value, nil
	})
	if err != nil {
		return zero, err
	}
	if shared {
		c.logger.Debug("coalesced concurrent fetch", zap.String("key", key))
	}

	value, isT := v.(T)
	if !isT {
		return zero, fmt.Errorf("requestcache: type mismatch for key %q", key)
	}
	return value, nil
}

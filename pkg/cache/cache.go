// Package cache provides the bounded memoization store owned by every module.
//
// Values are retrieved with a ReferenceKey, matching on the identity of objects, or
// with a ValueKey, matching on their serialization. ReferenceKey should be preferred
// for values coming from the data of a message; configurations are rebuilt on each
// merge and are keyed with ValueKey.
package cache

import (
	"fmt"
	"sync"

	"github.com/dukex/fluxrt/pkg/tracing"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultCapacity = 1

type entry struct {
	key   Key
	value any
}

// Cache stores up to capacity entries; the oldest are evicted first.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  []entry
	metrics  *cacheMetrics
}

// Option configures a Cache.
type Option func(*Cache) error

// WithMetrics registers hit, miss, eviction and size collectors labelled with component.
func WithMetrics(registerer prometheus.Registerer, component string) Option {
	return func(c *Cache) error {
		metrics, err := newCacheMetrics(registerer, component)
		if err != nil {
			return fmt.Errorf("failed to register cache metrics: %w", err)
		}

		c.metrics = metrics

		return nil
	}
}

// WithCapacity sets the initial capacity.
func WithCapacity(capacity int) Option {
	return func(c *Cache) error {
		c.SetCapacity(capacity)

		return nil
	}
}

// New creates an empty cache with a capacity of one entry.
func New(opts ...Option) (*Cache, error) {
	c := &Cache{capacity: defaultCapacity}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// SetCapacity changes the maximum number of entries, evicting the oldest ones when
// the store already exceeds it. Capacities below one are raised to one.
func (c *Cache) SetCapacity(capacity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.capacity = max(capacity, 1)
	c.evict()
}

func (c *Cache) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.capacity
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = nil
	c.metrics.updateSize(0)
}

// find returns the index of the entry matching key, or -1. Callers hold the lock.
func (c *Cache) find(key Key) int {
	for i, e := range c.entries {
		if e.key.Same(key) {
			return i
		}
	}

	return -1
}

// lookup returns the value stored under key when it holds a T. An entry of another
// type counts as a miss and is replaced by the next store.
func lookup[T any](c *Cache, key Key) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.find(key); i >= 0 {
		if value, ok := c.entries[i].value.(T); ok {
			c.metrics.recordHit()

			return value, true
		}
	}

	c.metrics.recordMiss()

	var zero T

	return zero, false
}

// store replaces the entry matching key in place, or adds a new one.
func (c *Cache) store(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.find(key); i >= 0 {
		c.entries[i] = entry{key: key, value: value}

		return
	}

	if c.capacity == 1 && len(c.entries) == 1 {
		c.entries[0] = entry{key: key, value: value}

		return
	}

	c.entries = append(c.entries, entry{key: key, value: value})
	c.evict()
}

// evict drops the oldest entries above capacity. Callers hold the lock.
func (c *Cache) evict() {
	overflow := len(c.entries) - c.capacity
	if overflow > 0 {
		c.entries = append([]entry(nil), c.entries[overflow:]...)
		c.metrics.recordEvictions(overflow)
	}

	c.metrics.updateSize(len(c.entries))
}

func hitText(key Key) string {
	return fmt.Sprintf("Cache -> %s: Value retrieved from cache", key.Name())
}

func creationTitle(key Key) string {
	return fmt.Sprintf("Cache -> %s: Value creation", key.Name())
}

// GetOrCreate returns the value cached for key, creating and storing it on a miss.
// When ctx is not nil a hit is logged on it and the creation runs in a child context
// passed to creator; otherwise creator receives nil. Failed creations are not stored.
func GetOrCreate[T any](c *Cache, key Key, creator func(ctx *tracing.Context) (T, error), ctx *tracing.Context) (T, error) {
	value, _, err := GetOrCreateWithStatus(c, key, creator, ctx)

	return value, err
}

// GetOrCreateWithStatus is GetOrCreate also reporting whether the value came from the cache.
func GetOrCreateWithStatus[T any](c *Cache, key Key, creator func(ctx *tracing.Context) (T, error), ctx *tracing.Context) (T, bool, error) {
	if cached, ok := lookup[T](c, key); ok {
		if ctx != nil {
			ctx.Info(hitText(key), cached)
		}

		return cached, true, nil
	}

	var (
		value T
		err   error
	)

	if ctx != nil {
		value, err = tracing.Child(ctx, creationTitle(key), creator, nil)
	} else {
		value, err = creator(nil)
	}

	if err != nil {
		return value, false, err
	}

	c.store(key, value)

	return value, false, nil
}

// Result is the outcome of an asynchronous creation.
type Result[T any] struct {
	Value  T
	Cached bool
	Err    error
}

// GetOrCreateAsync is the asynchronous counterpart of GetOrCreateWithStatus: creator
// returns a channel delivering the value later. A hit is delivered immediately. On a
// miss the child context is started before creator is called and ended once the value
// or an error is received; the value is then stored.
func GetOrCreateAsync[T any](c *Cache, key Key, creator func(ctx *tracing.Context) <-chan Result[T], ctx *tracing.Context) <-chan Result[T] {
	out := make(chan Result[T], 1)

	if cached, ok := lookup[T](c, key); ok {
		if ctx != nil {
			ctx.Info(hitText(key), cached)
		}

		out <- Result[T]{Value: cached, Cached: true}
		close(out)

		return out
	}

	var child *tracing.Context
	if ctx != nil {
		child = ctx.StartChild(creationTitle(key), nil)
	}

	pending := creator(child)

	go func() {
		defer close(out)

		result, ok := <-pending
		if !ok {
			result = Result[T]{Err: fmt.Errorf("cache %s: creator closed without a value", key.Name())}
		}

		if child != nil {
			if result.Err != nil {
				child.Error(result.Err, nil)
			}

			child.End()
		}

		if result.Err == nil {
			c.store(key, result.Value)
		}

		result.Cached = false
		out <- result
	}()

	return out
}

// Resolved wraps an already available value as the result of an asynchronous creator.
func Resolved[T any](value T) <-chan Result[T] {
	out := make(chan Result[T], 1)
	out <- Result[T]{Value: value}
	close(out)

	return out
}

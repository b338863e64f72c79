package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidCapacity is returned by New when Capacity is not positive.
var ErrInvalidCapacity = errors.New("cache capacity must be positive")

// Reason says why an entry left the cache without an explicit Delete.
type Reason string

const (
	ReasonCapacity Reason = "capacity"
	ReasonExpired  Reason = "expired"
)

// Eviction describes one entry removed by the cache itself.
type Eviction struct {
	Key    string
	Reason Reason
}

// Config is fixed for the lifetime of a Cache.
type Config struct {
	// Capacity is the maximum number of entries. Must be positive.
	Capacity int

	// Now is the clock used for expiry. Defaults to time.Now.
	Now func() time.Time

	// OnEvict, if set, is called for every capacity eviction and every expired
	// entry the cache reclaims. It runs after the cache lock is released.
	OnEvict func(Eviction)
}

// Cache is a concurrency-safe LRU cache with per-entry expiration.
//
// A single mutex guards the store: Get promotes the entry it reads, so reads are
// writes to the recency list and there is nothing to gain from an RWMutex.
type Cache struct {
	mu       sync.Mutex
	store    *Store
	capacity int
	onEvict  func(Eviction)
}

// New builds a cache from cfg.
func New(cfg Config) (*Cache, error) {
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, cfg.Capacity)
	}
	return &Cache{
		store:    NewStore(cfg.Now),
		capacity: cfg.Capacity,
		onEvict:  cfg.OnEvict,
	}, nil
}

// Capacity returns the configured maximum number of entries.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Set stores value under key for ttlSeconds. Overwriting an existing key never
// evicts. Inserting a new key into a full cache evicts exactly one entry: an
// expired one when any exists, otherwise the least recently used.
func (c *Cache) Set(key, value string, ttlSeconds int64) {
	var evicted []Eviction

	c.mu.Lock()
	if _, exists := c.store.Peek(key); !exists && c.store.Len() >= c.capacity {
		if e, ok := c.store.EvictExpired(); ok {
			evicted = append(evicted, Eviction{Key: e.Key, Reason: ReasonExpired})
		} else if e, ok := c.store.Evict(); ok {
			evicted = append(evicted, Eviction{Key: e.Key, Reason: ReasonCapacity})
		}
	}
	c.store.Put(key, value, ttlSeconds)
	c.mu.Unlock()

	c.notify(evicted)
}

// Get returns the value for key. found is false both for keys that were never
// set and for keys that have expired.
func (c *Cache) Get(key string) (value string, found bool) {
	c.mu.Lock()
	_, present := c.store.Peek(key)
	e, ok := c.store.Get(key)
	c.mu.Unlock()

	if present && !ok {
		c.notify([]Eviction{{Key: key, Reason: ReasonExpired}})
	}
	return e.Value, ok
}

// Delete removes key. Deleting an absent key is a no-op.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Remove(key)
}

// Len returns the number of live entries. Expired entries still held in memory
// are reclaimed first, so Len never counts them.
func (c *Cache) Len() int {
	c.mu.Lock()
	removed := c.store.RemoveExpired()
	n := c.store.Len()
	c.mu.Unlock()

	c.notify(expiredEvictions(removed))
	return n
}

// Keys returns the live keys, most recently used first.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Keys()
}

// DeleteExpired reclaims every expired entry and returns how many were removed.
func (c *Cache) DeleteExpired() int {
	c.mu.Lock()
	removed := c.store.RemoveExpired()
	c.mu.Unlock()

	c.notify(expiredEvictions(removed))
	return len(removed)
}

func (c *Cache) notify(evicted []Eviction) {
	if c.onEvict == nil {
		return
	}
	for _, ev := range evicted {
		c.onEvict(ev)
	}
}

func expiredEvictions(entries []Entry) []Eviction {
	if len(entries) == 0 {
		return nil
	}
	out := make([]Eviction, len(entries))
	for i, e := range entries {
		out[i] = Eviction{Key: e.Key, Reason: ReasonExpired}
	}
	return out
}

// Package memo provides the process-global memoization cache backing the
// incremental engine. Entries are keyed by content fingerprint and carry the
// generation they were last used in; bounded eviction drops entries that sat
// idle across the last N passes, keeping repeated incremental edits from
// growing the cache without bound.
package memo

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// DefaultMaxAge is the default number of passes an entry may sit unused
// before eviction.
const DefaultMaxAge = 30

// keySeparator terminates each fingerprint part so that concatenations of
// different parts cannot collide.
const keySeparator = "\x00"

type entry struct {
	value    any
	lastUsed uint64
}

// Cache is a generation-tracked memoization store, safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[uint64]*entry
	generation uint64

	// Metrics (atomic for lock-free reads).
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[uint64]*entry)}
}

// defaultCache is the shared store every engine invocation in this process
// consults, mirroring the engine's view of one global memoization space.
var defaultCache = New() //nolint:gochecknoglobals // process-global by contract

// Default returns the shared process cache.
func Default() *Cache {
	return defaultCache
}

// Key fingerprints the given parts into a cache key.
func Key(parts ...[]byte) uint64 {
	digest := xxhash.New()

	for _, part := range parts {
		_, _ = digest.Write(part)
		_, _ = digest.WriteString(keySeparator)
	}

	return digest.Sum64()
}

// KeyString fingerprints the given string parts into a cache key.
func KeyString(parts ...string) uint64 {
	digest := xxhash.New()

	for _, part := range parts {
		_, _ = digest.WriteString(part)
		_, _ = digest.WriteString(keySeparator)
	}

	return digest.Sum64()
}

// GetOrCompute returns the memoized value for key, computing and storing it
// on a miss. The compute function runs without the cache lock, so concurrent
// callers for the same key may compute the value more than once (only one
// result is kept). A compute error stores nothing.
func (c *Cache) GetOrCompute(key uint64, compute func() (any, error)) (any, error) {
	c.mu.Lock()

	if existing, ok := c.entries[key]; ok {
		existing.lastUsed = c.generation
		c.mu.Unlock()
		c.hits.Add(1)

		return existing.value, nil
	}

	generation := c.generation
	c.mu.Unlock()
	c.misses.Add(1)

	value, err := compute()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		existing.lastUsed = c.generation

		return existing.value, nil
	}

	c.entries[key] = &entry{value: value, lastUsed: generation}

	return value, nil
}

// Get returns the memoized value for key without computing, refreshing its
// generation on a hit.
func (c *Cache) Get(key uint64) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	existing.lastUsed = c.generation

	return existing.value, true
}

// Contains reports whether key is present without refreshing its generation.
func (c *Cache) Contains(key uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]

	return ok
}

// Evict closes one pass: it advances the generation counter and drops every
// entry that has not been used within the last maxAge passes. Callers invoke
// it after each compile or evaluate pass, once the pass's world snapshot is
// dead, so a still-running concurrent pass never loses entries it depends on
// mid-flight.
func (c *Cache) Evict(maxAge uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++

	for key, e := range c.entries {
		if c.generation-e.lastUsed > maxAge {
			delete(c.entries, key)
			c.evictions.Add(1)
		}
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Stats returns cumulative hit, miss, and eviction counts.
func (c *Cache) Stats() (hits, misses, evictions int64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}

// Reset drops all entries and rewinds the generation counter. Test helper.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[uint64]*entry)
	c.generation = 0
}

// GetOrCompute memoizes through the shared process cache.
func GetOrCompute(key uint64, compute func() (any, error)) (any, error) {
	return defaultCache.GetOrCompute(key, compute)
}

// Evict advances the shared process cache by one pass.
func Evict(maxAge uint64) {
	defaultCache.Evict(maxAge)
}

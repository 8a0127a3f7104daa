// Package cache provides the TTL + LRU key/value store shared by the engine's components.
package cache

import (
	"container/list"
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ann82/dv-assistant-sub003/internal/observability"
)

// DefaultEvictionInterval is the default interval for periodic TTL eviction.
const DefaultEvictionInterval = time.Minute

// ErrCorruptEntry marks a cached value rejected by the validator. Corrupt
// entries are dropped and reported as misses.
var ErrCorruptEntry = errors.New("cache: corrupt entry")

// Entry is one cached value. Entries are owned by the Cache.
type Entry[V any] struct {
	Key       string
	Value     V
	CreatedAt time.Time
	TTL       time.Duration
}

func (e *Entry[V]) expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.CreatedAt) > e.TTL
}

// Stats tracks cache effectiveness.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// Option customises a Cache.
type Option[V any] func(*Cache[V])

// WithValidator installs a check run on every hit; values failing it are discarded.
func WithValidator[V any](validate func(V) bool) Option[V] {
	return func(c *Cache[V]) {
		c.validate = validate
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		if now != nil {
			c.now = now
		}
	}
}

// Cache is a size-bounded map with per-entry TTL. Expired entries are removed
// first; when the cache is full the least recently used entry is evicted.
// All methods are safe for concurrent use.
type Cache[V any] struct {
	mu         sync.Mutex
	name       string
	entries    map[string]*list.Element
	lru        *list.List
	maxEntries int
	ttl        time.Duration
	validate   func(V) bool
	now        func() time.Time
	stats      Stats
}

// New creates a cache. maxEntries <= 0 means unbounded; ttl <= 0 means entries never expire.
func New[V any](name string, maxEntries int, ttl time.Duration, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		name:       name,
		entries:    make(map[string]*list.Element),
		lru:        list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the label used for metrics and logs.
func (c *Cache[V]) Name() string {
	return c.name
}

// Get returns the value for key when present, unexpired and valid.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.miss()
		return zero, false
	}

	entry := elem.Value.(*Entry[V])
	if entry.expired(c.now()) {
		c.removeElement(elem)
		c.stats.Evictions++
		observability.RecordCacheEviction(c.name, "ttl", 1)
		c.miss()
		return zero, false
	}

	if c.validate != nil && !c.validate(entry.Value) {
		c.removeElement(elem)
		c.stats.Evictions++
		observability.RecordCacheEviction(c.name, "corrupt", 1)
		log.Warnf("[cache] %s: dropping entry %q: %v", c.name, key, ErrCorruptEntry)
		c.miss()
		return zero, false
	}

	c.lru.MoveToFront(elem)
	c.stats.Hits++
	observability.RecordCacheHit(c.name)
	return entry.Value, true
}

// Set stores value under key with the cache's default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*Entry[V])
		entry.Value = value
		entry.CreatedAt = now
		entry.TTL = ttl
		c.lru.MoveToFront(elem)
		return
	}

	if c.maxEntries > 0 && c.lru.Len() >= c.maxEntries {
		// Expired entries go first so a live entry is only dropped when needed.
		c.evictExpiredLocked(now)
		for c.lru.Len() >= c.maxEntries {
			c.removeElement(c.lru.Back())
			c.stats.Evictions++
			observability.RecordCacheEviction(c.name, "lru", 1)
		}
	}

	elem := c.lru.PushFront(&Entry[V]{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		TTL:       ttl,
	})
	c.entries[key] = elem
	observability.SetCacheSize(c.name, len(c.entries))
}

// Delete removes key if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		c.removeElement(elem)
	}
}

// Len returns the number of stored entries, expired ones included until swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.lru.Init()
	observability.SetCacheSize(c.name, 0)
}

// Stats returns a snapshot of the counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.Size = len(c.entries)
	return stats
}

// EvictExpired removes all expired entries and returns how many were dropped.
func (c *Cache[V]) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictExpiredLocked(c.now())
}

// StartPeriodicEviction sweeps expired entries on a ticker until ctx is done.
func (c *Cache[V]) StartPeriodicEviction(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultEvictionInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := c.EvictExpired(); evicted > 0 {
					log.Debugf("[cache] %s: evicted %d expired entries", c.name, evicted)
				}
			}
		}
	}()
}

func (c *Cache[V]) evictExpiredLocked(now time.Time) int {
	evicted := 0
	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*Entry[V]).expired(now) {
			c.removeElement(elem)
			evicted++
		}
		elem = prev
	}
	c.stats.Evictions += int64(evicted)
	observability.RecordCacheEviction(c.name, "ttl", evicted)
	return evicted
}

func (c *Cache[V]) removeElement(elem *list.Element) {
	if elem == nil {
		return
	}
	entry := elem.Value.(*Entry[V])
	c.lru.Remove(elem)
	delete(c.entries, entry.Key)
	observability.SetCacheSize(c.name, len(c.entries))
}

func (c *Cache[V]) miss() {
	c.stats.Misses++
	observability.RecordCacheMiss(c.name)
}

// NormalizeKey lowercases s and collapses whitespace so that trivially
// different spellings of the same utterance share an entry.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Package cache provides compiled-query-plan caching for ad-hoc HQL
// execution. A project's schema + query files compile into one plan module
// up front; this cache is for the complementary path of running one-off
// query text that was not part of that project, e.g. a REPL or
// cmd/helixctl's "query run" against an inline string, where re-parsing +
// re-analyzing identical source on every call would be wasted work.
//
// An LRU-plus-TTL shape: hash map for O(1) lookup, doubly-linked list for
// recency, atomic hit/miss counters, scoped as one cache per pkg/helixdb.DB
// instance -- a global singleton would leak cached plans across
// independently opened embedded databases.
package cache

import (
	"container/list"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/helixdb/helix/internal/hql/codegen"
)

// PlanCache is a thread-safe LRU cache of compiled ad-hoc query plans.
type PlanCache struct {
	mu sync.RWMutex

	maxSize int
	ttl     time.Duration
	enabled bool

	list  *list.List
	items map[uint64]*list.Element

	hits   uint64
	misses uint64
}

type planEntry struct {
	key       uint64
	plan      *codegen.Plan
	expiresAt time.Time
}

// NewPlanCache creates a cache holding at most maxSize plans, each valid
// for ttl (0 disables expiration, relying on LRU eviction alone).
func NewPlanCache(maxSize int, ttl time.Duration) *PlanCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &PlanCache{
		maxSize: maxSize,
		ttl:     ttl,
		enabled: true,
		list:    list.New(),
		items:   make(map[uint64]*list.Element, maxSize),
	}
}

// Key hashes query source text into a cache key. Ad-hoc query text needs no
// separate parameter-shape signature -- HQL params are part of the QUERY
// signature itself, so the source text alone is a sufficient key.
func (c *PlanCache) Key(source string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(source))
	return h.Sum64()
}

// Get returns the cached plan for key, if present and unexpired.
func (c *PlanCache) Get(key uint64) (*codegen.Plan, bool) {
	if !c.enabled {
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}

	c.mu.RLock()
	elem, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}

	entry := elem.Value.(*planEntry)
	if c.ttl > 0 && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		c.removeElement(elem)
		c.mu.Unlock()
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}

	c.mu.Lock()
	c.list.MoveToFront(elem)
	c.mu.Unlock()
	atomic.AddUint64(&c.hits, 1)
	return entry.plan, true
}

// Put inserts or refreshes the cached plan for key, evicting the least
// recently used entry first if the cache is at capacity.
func (c *PlanCache) Put(key uint64, plan *codegen.Plan) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*planEntry)
		entry.plan = plan
		if c.ttl > 0 {
			entry.expiresAt = time.Now().Add(c.ttl)
		}
		c.list.MoveToFront(elem)
		return
	}

	for c.list.Len() >= c.maxSize {
		c.evictOldest()
	}

	entry := &planEntry{key: key, plan: plan}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}
	elem := c.list.PushFront(entry)
	c.items[key] = elem
}

// Remove evicts key, if present.
func (c *PlanCache) Remove(key uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Clear empties the cache.
func (c *PlanCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list.Init()
	c.items = make(map[uint64]*list.Element, c.maxSize)
}

// Len reports the current number of cached plans.
func (c *PlanCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.list.Len()
}

// Stats reports cache hit/miss counters.
type Stats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
	HitRate float64
}

func (c *PlanCache) Stats() Stats {
	hits := atomic.LoadUint64(&c.hits)
	misses := atomic.LoadUint64(&c.misses)

	c.mu.RLock()
	size := c.list.Len()
	c.mu.RUnlock()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return Stats{Size: size, MaxSize: c.maxSize, Hits: hits, Misses: misses, HitRate: hitRate}
}

// SetEnabled toggles the cache, clearing it when disabled.
func (c *PlanCache) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
	if !enabled {
		c.list.Init()
		c.items = make(map[uint64]*list.Element, c.maxSize)
	}
}

func (c *PlanCache) evictOldest() {
	if elem := c.list.Back(); elem != nil {
		c.removeElement(elem)
	}
}

func (c *PlanCache) removeElement(elem *list.Element) {
	c.list.Remove(elem)
	entry := elem.Value.(*planEntry)
	delete(c.items, entry.key)
}

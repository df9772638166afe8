package tiles

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// Cache is a concurrent LRU of tile bodies with TTL expiry.
type Cache struct {
	mu         sync.Mutex
	entries    map[Coord]*list.Element
	lru        *list.List // front = most recent
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	hits       atomic.Int64
	misses     atomic.Int64
}

type cacheEntry struct {
	key       Coord
	data      []byte
	expiresAt time.Time
}

// Stats contains cache performance statistics.
type Stats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewCache creates a cache holding at most maxEntries tiles for ttl each.
func NewCache(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Cache{
		entries:    make(map[Coord]*list.Element),
		lru:        list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns a cached tile, or nil on miss or expiry.
func (c *Cache) Get(key Coord) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil
	}
	e := el.Value.(*cacheEntry)
	if c.now().After(e.expiresAt) {
		c.lru.Remove(el)
		delete(c.entries, key)
		c.misses.Add(1)
		return nil
	}
	c.lru.MoveToFront(el)
	c.hits.Add(1)
	return e.data
}

// Put stores a tile, evicting the least recently used one when full.
func (c *Cache) Put(key Coord, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*cacheEntry)
		e.data, e.expiresAt = data, expires
		c.lru.MoveToFront(el)
		return
	}

	for c.lru.Len() >= c.maxEntries {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	c.entries[key] = c.lru.PushFront(&cacheEntry{key: key, data: data, expiresAt: expires})
}

// Stats returns cache performance statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries := c.lru.Len()
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{
		Entries:    entries,
		MaxEntries: c.maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

package geocode

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"
)

// cacheKey returns SHA-256 hex of the normalized query.
func cacheKey(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

type cachedResults struct {
	results  []Result
	cachedAt time.Time
}

// resultCache holds recent search results. When full, the oldest entry
// is evicted.
type resultCache struct {
	mu      sync.Mutex
	entries map[string]cachedResults
	size    int
	ttl     time.Duration
	now     func() time.Time
}

func newResultCache(size int, ttl time.Duration) *resultCache {
	return &resultCache{
		entries: make(map[string]cachedResults, size),
		size:    size,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *resultCache) get(key string) ([]Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.cachedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.results, true
}

func (c *resultCache) put(key string, results []Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.size {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.cachedAt.Before(oldest) {
				oldestKey, oldest = k, e.cachedAt
			}
		}
		delete(c.entries, oldestKey)
	}
	c.entries[key] = cachedResults{results: results, cachedAt: c.now()}
}

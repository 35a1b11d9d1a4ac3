package market

import (
	"strings"
	"sync"
	"time"
)

type cacheEntry struct {
	expiresAt time.Time
	quote     *Quote
}

// quoteCache keeps recent quotes per symbol for a TTL so interactive
// requests and the refresh job do not burn provider quota on symbols
// fetched moments ago. Quotes stay in-process only.
type quoteCache struct {
	ttl      time.Duration
	maxItems int

	mu    sync.RWMutex
	items map[string]cacheEntry
}

func newQuoteCache(ttl time.Duration, maxItems int) *quoteCache {
	if maxItems <= 0 {
		maxItems = 1000
	}
	return &quoteCache{ttl: ttl, maxItems: maxItems, items: make(map[string]cacheEntry)}
}

func (c *quoteCache) get(symbol string) (*Quote, bool) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.quote, true
}

func (c *quoteCache) put(symbol string, q *Quote) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheEntry{expiresAt: now.Add(c.ttl), quote: q}

	if len(c.items) <= c.maxItems {
		return
	}
	// best-effort cap: expired entries first, then arbitrary keys
	for k, v := range c.items {
		if now.After(v.expiresAt) {
			delete(c.items, k)
		}
		if len(c.items) <= c.maxItems {
			return
		}
	}
	for k := range c.items {
		if len(c.items) <= c.maxItems {
			return
		}
		delete(c.items, k)
	}
}

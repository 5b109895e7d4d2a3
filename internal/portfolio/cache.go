package portfolio

import (
	"strings"
	"sync"
	"time"

	"github.com/mtlprog/wealth/internal/domain"
)

const searchCacheTTL = 30 * time.Second

type searchEntry struct {
	items     []domain.TickerSearchItem
	expiresAt time.Time
}

// searchCache remembers ticker search results per query for a short while,
// so typing the same prefix again does not hit the backend.
type searchCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]searchEntry
}

func newSearchCache(ttl time.Duration) *searchCache {
	return &searchCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]searchEntry),
	}
}

func searchKey(query string) string {
	return strings.ToUpper(strings.TrimSpace(query))
}

func (c *searchCache) get(query string) ([]domain.TickerSearchItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[searchKey(query)]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.items, true
}

func (c *searchCache) set(query string, items []domain.TickerSearchItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[searchKey(query)] = searchEntry{
		items:     items,
		expiresAt: now.Add(c.ttl),
	}
}

package cache

import (
	"sync"
	"time"

	"stellar-network-explorer/internal/domain/entity"
	"stellar-network-explorer/internal/domain/repository"
)

type cacheEntry struct {
	page      *entity.TransferPage
	expiresAt time.Time
}

// MemoryPageCache is an in-process TTL cache for transfer pages. Expired
// entries are evicted lazily on read.
type MemoryPageCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewMemoryPageCache creates an empty in-memory page cache.
func NewMemoryPageCache() repository.PageCache {
	return &MemoryPageCache{
		entries: make(map[string]cacheEntry),
	}
}

func (c *MemoryPageCache) Get(key string) (*entity.TransferPage, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.page, true
}

func (c *MemoryPageCache) Set(key string, page *entity.TransferPage, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{page: page, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

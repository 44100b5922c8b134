package poster

import (
	"container/list"
	"context"
	"sync"
)

// DefaultMemoryCacheSize is the entry limit used when a non-positive size is given
const DefaultMemoryCacheSize = 256

// MemoryCache is a thread-safe in-process LRU cache
type MemoryCache struct {
	size      int
	evictList *list.List
	items     map[string]*list.Element
	mu        sync.Mutex
}

// entry is stored in the eviction list
type entry struct {
	key   string
	value CachedResponse
}

// NewMemoryCache creates an LRU cache holding at most size entries
func NewMemoryCache(size int) *MemoryCache {
	if size <= 0 {
		size = DefaultMemoryCacheSize
	}
	return &MemoryCache{
		size:      size,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
	}
}

// Get retrieves a copy of the entry for key
func (c *MemoryCache) Get(ctx context.Context, key string) (*CachedResponse, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, exists := c.items[key]
	if !exists {
		return nil, false, nil
	}

	// Move to front (most recently used)
	c.evictList.MoveToFront(node)

	stored := node.Value.(*entry).value
	return &CachedResponse{
		Data:     append([]byte(nil), stored.Data...),
		MIMEType: stored.MIMEType,
	}, true, nil
}

// Put adds or replaces the entry for key
func (c *MemoryCache) Put(ctx context.Context, key string, resp CachedResponse) error {
	resp.Data = append([]byte(nil), resp.Data...)

	c.mu.Lock()
	defer c.mu.Unlock()

	if node, exists := c.items[key]; exists {
		c.evictList.MoveToFront(node)
		node.Value.(*entry).value = resp
		return nil
	}

	node := c.evictList.PushFront(&entry{key: key, value: resp})
	c.items[key] = node

	if c.evictList.Len() > c.size {
		c.removeOldest()
	}
	return nil
}

// removeOldest removes the least recently used item
func (c *MemoryCache) removeOldest() {
	node := c.evictList.Back()
	if node != nil {
		c.evictList.Remove(node)
		delete(c.items, node.Value.(*entry).key)
	}
}

// Len returns the number of items in the cache
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.evictList.Len()
}

var _ ResponseCache = (*MemoryCache)(nil)

package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache is bounded by size and expires entries after a TTL.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.lookupLocked(key)
	if !ok {
		return zero, false
	}
	c.lru.MoveToFront(elem)
	return elem.Value.(*cacheItem[T]).data, true
}

// Set stores data with the cache's default TTL.
func (c *LRUCache[T]) Set(key string, data T) {
	c.SetWithTTL(key, data, c.ttl)
}

// SetWithTTL stores data that expires after ttl instead of the default.
func (c *LRUCache[T]) SetWithTTL(key string, data T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, data, ttl)
}

// SetIfAbsent stores data only when key has no live entry and reports
// whether it did. Check and insert happen under one lock.
func (c *LRUCache[T]) SetIfAbsent(key string, data T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lookupLocked(key); ok {
		return false
	}
	c.setLocked(key, data, c.ttl)
	return true
}

func (c *LRUCache[T]) lookupLocked(key string) (*list.Element, bool) {
	elem, exists := c.items[key]
	if !exists {
		return nil, false
	}
	if c.now().After(elem.Value.(*cacheItem[T]).expiresAt) {
		c.removeElement(elem)
		return nil, false
	}
	return elem, true
}

func (c *LRUCache[T]) setLocked(key string, data T, ttl time.Duration) {
	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: c.now().Add(ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// Take returns a live entry and removes it in the same step.
func (c *LRUCache[T]) Take(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.lookupLocked(key)
	if !ok {
		return zero, false
	}
	c.removeElement(elem)
	return elem.Value.(*cacheItem[T]).data, true
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
}

func (c *LRUCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// CleanExpired removes all expired entries and returns count of removed items
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*cacheItem[T]).expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}

// Size returns the current number of items in the cache
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

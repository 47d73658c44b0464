// Package cache holds retrieved menu bytes for the life of the process.
package cache

import "sync"

// Cache maps relay URLs to immutable byte buffers. Callers never share
// memory with the stored records: Put stores a copy and Get returns one.
//
// Nothing is evicted; the cache grows with the number of distinct
// documents viewed.
type Cache struct {
	mu      sync.RWMutex
	records map[string][]byte
	size    int64
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{records: make(map[string][]byte)}
}

// Get returns a copy of the bytes stored under key.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	b, ok := c.records[key]
	if !ok {
		return nil, false
	}
	return clone(b), true
}

// Put stores a copy of b under key. A record is immutable once created, so
// a second Put for the same key is ignored and reports false.
func (c *Cache) Put(key string, b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.records[key]; exists {
		return false
	}
	c.records[key] = clone(b)
	c.size += int64(len(b))
	return true
}

// Has reports whether key is cached without copying its bytes.
func (c *Cache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.records[key]
	return ok
}

// Len returns the number of records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Size returns the total number of cached bytes.
func (c *Cache) Size() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

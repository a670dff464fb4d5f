// Package memory provides an in-process cache of decrypted entries.
package memory

import (
	"sync"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
)

// Cache memoizes content in a map. Entries are kept until deleted.
// The cache is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[digest.Digest][]byte
	bytes   atomic.Int64
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[digest.Digest][]byte)}
}

// Get retrieves content by key.
func (c *Cache) Get(key digest.Digest) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.entries[key]
	return b, ok
}

// Put stores content under key. An existing entry is kept.
func (c *Cache) Put(key digest.Digest, content []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return nil
	}
	c.entries[key] = content
	c.bytes.Add(int64(len(content)))
	return nil
}

// Delete removes content for key.
func (c *Cache) Delete(key digest.Digest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.bytes.Add(-int64(len(b)))
	}
	return nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// SizeBytes returns the total size of cached content.
func (c *Cache) SizeBytes() int64 {
	return c.bytes.Load()
}

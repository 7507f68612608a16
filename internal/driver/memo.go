package driver

import (
	"sync"

	"bracefix/internal/cache"
)

// MemoCache is a per-process cache of repair outcomes by cache key. It
// sits in front of the disk cache so duplicate expressions of one run are
// searched once.
type MemoCache struct {
	mu    sync.RWMutex
	byKey map[cache.Digest]*cache.Entry
}

// NewMemoCache creates a MemoCache with the given capacity hint.
func NewMemoCache(capHint int) *MemoCache {
	return &MemoCache{byKey: make(map[cache.Digest]*cache.Entry, capHint)}
}

// Get returns the entry stored under key.
func (c *MemoCache) Get(key cache.Digest) (*cache.Entry, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.byKey[key]
	c.mu.RUnlock()
	return e, ok
}

// Put stores e under key.
func (c *MemoCache) Put(key cache.Digest, e *cache.Entry) {
	if c == nil || e == nil {
		return
	}
	c.mu.Lock()
	c.byKey[key] = e
	c.mu.Unlock()
}

// Len returns the number of stored outcomes.
func (c *MemoCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byKey)
}

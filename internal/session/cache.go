package session

import "sync"

// Cache is a process-local, last-writer-wins map of channel → latest
// session ID. It is best-effort only: entries may be stale or missing after
// a restart, and the Registry always falls back to the store.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// Get returns the cached session ID for a channel, if any.
func (c *Cache) Get(channel string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.entries[channel]
	return id, ok
}

// Put records channel → sessionID, replacing any previous entry.
func (c *Cache) Put(channel, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[channel] = sessionID
}

// Reset clears all entries.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string)
}

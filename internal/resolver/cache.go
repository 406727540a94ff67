package resolver

import (
	"sync"

	"aistep/internal/types"
)

// Cache holds resolved handles keyed by target description, scoped to one
// scenario per spec.md §4.2 ("the cache's lifetime is the scenario").
// Invalidated wholesale on navigation, or per-entry on an observed
// failure against a cached handle.
type Cache struct {
	mu      sync.Mutex
	entries map[string]types.ResolveResult
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]types.ResolveResult)}
}

// Get returns the cached result for a description, if present.
func (c *Cache) Get(description string) (types.ResolveResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[description]
	return v, ok
}

// Set stores a resolved result for a description.
func (c *Cache) Set(description string, result types.ResolveResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[description] = result
}

// Delete drops one entry, e.g. after a cached handle is observed to fail.
func (c *Cache) Delete(description string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, description)
}

// Clear empties the cache, e.g. on navigation.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]types.ResolveResult)
}

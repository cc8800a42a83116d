// Package cache keeps the latest conversion result per source URL.
package cache

import (
	"sync"

	"github.com/handiism/vidconv/internal/model"
)

// Cache maps a source URL to its most recent successful result.
//
// Every operation holds one mutex, so a Get racing a Put observes either the
// old or the new value and never a partial one. There is deliberately no
// iteration API.
type Cache struct {
	mu      sync.Mutex
	results map[string]*model.ConversionResult
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{results: make(map[string]*model.ConversionResult)}
}

// Put stores result under url, replacing any previous entry.
func (c *Cache) Put(url string, result *model.ConversionResult) {
	if result == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[url] = result
}

// Get returns the cached result for url.
func (c *Cache) Get(url string) (*model.ConversionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[url]
	return r, ok
}

// Invalidate drops the entry for url, if any.
func (c *Cache) Invalidate(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.results, url)
}

package cache

import (
	"sync"
)

// ViewCache memoizes a rendered view so the fallback render path doesn't
// re-wrap and re-strip the same capture on every frame. A render is reused
// as long as the requested dimensions and the content generation both match.
type ViewCache struct {
	mu         sync.RWMutex
	rendered   string
	generation uint64
	cachedGen  uint64
	valid      bool
	dimensions struct {
		width  int
		height int
	}
}

// NewViewCache creates an empty ViewCache.
func NewViewCache() *ViewCache {
	return &ViewCache{}
}

// Get returns the cached render if dimensions and generation still match,
// or calls render to produce (and remember) a fresh one.
func (c *ViewCache) Get(width, height int, render func(width, height int) string) string {
	c.mu.RLock()
	if c.valid && c.cachedGen == c.generation && c.dimensions.width == width && c.dimensions.height == height {
		result := c.rendered
		c.mu.RUnlock()
		return result
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.valid && c.cachedGen == c.generation && c.dimensions.width == width && c.dimensions.height == height {
		return c.rendered
	}

	c.dimensions.width = width
	c.dimensions.height = height
	c.rendered = render(width, height)
	c.cachedGen = c.generation
	c.valid = true

	return c.rendered
}

// Invalidate bumps the content generation, forcing a re-render on next Get.
func (c *ViewCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
}

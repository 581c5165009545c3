package readable

import (
	"context"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/multierr"
)

// Cache keeps recently opened catalogs alive, keyed by locator, so that
// repeated access to the same container skips the open-and-index cost.
// The least recently used catalog is closed on eviction.
//
// A catalog obtained from the cache stays valid until it is evicted;
// callers that hold results across many other opens should size the cache
// accordingly.
type Cache struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[string, *Catalog]
	evictErr error
}

// NewCache creates a cache holding at most size open catalogs.
func NewCache(size int) (*Cache, error) {
	c := &Cache{}
	lru, err := simplelru.NewLRU(size, func(_ string, cat *Catalog) {
		c.evictErr = multierr.Append(c.evictErr, cat.Close())
	})
	if err != nil {
		return nil, err
	}
	c.lru = lru
	return c, nil
}

// Open returns the cached catalog for locator, opening and inserting it on
// a miss. Options only apply on a miss; a cached catalog is returned as it
// was originally opened.
func (c *Cache) Open(ctx context.Context, locator string, opts ...Option) (*Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cat, ok := c.lru.Get(locator); ok {
		return cat, nil
	}

	cat, err := Open(ctx, locator, opts...)
	if err != nil {
		return nil, err
	}
	c.lru.Add(locator, cat)
	return cat, nil
}

// Contains reports whether a catalog for locator is currently cached,
// without affecting recency.
func (c *Cache) Contains(locator string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Contains(locator)
}

// Len returns the number of cached catalogs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Remove closes and drops the catalog for locator, if cached.
func (c *Cache) Remove(locator string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Remove(locator)
	err := c.evictErr
	c.evictErr = nil
	return err
}

// Close evicts every cached catalog and returns the combined close errors,
// including any from earlier evictions.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Purge()
	err := c.evictErr
	c.evictErr = nil
	return err
}

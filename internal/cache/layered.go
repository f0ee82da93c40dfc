package cache

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/ppiankov/aidmatch/internal/model"
)

// LayeredCache checks memory before disk and promotes disk hits
type LayeredCache struct {
	memory Cache
	disk   Cache

	hits   atomic.Int64
	misses atomic.Int64
}

// NewLayeredCache creates a memory + disk cache from configuration
func NewLayeredCache(config model.CacheConfig) *LayeredCache {
	return NewLayered(
		NewMemoryCache(config.MemoryTTL, 10*time.Minute),
		NewDiskCache(config.Dir, config.DiskTTL),
	)
}

// NewLayered composes two caches; either may be nil
func NewLayered(memory, disk Cache) *LayeredCache {
	return &LayeredCache{memory: memory, disk: disk}
}

// Get retrieves a value, checking memory first
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if c.memory != nil {
		if val, found := c.memory.Get(key); found {
			c.hits.Add(1)
			return val, true
		}
	}

	if c.disk != nil {
		if val, found := c.disk.Get(key); found {
			if c.memory != nil {
				_ = c.memory.Set(key, val, 0)
			}
			c.hits.Add(1)
			return val, true
		}
	}

	c.misses.Add(1)
	return nil, false
}

// Set stores a value in every layer
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	var errs []error
	if c.memory != nil {
		errs = append(errs, c.memory.Set(key, value, ttl))
	}
	if c.disk != nil {
		errs = append(errs, c.disk.Set(key, value, ttl))
	}
	return errors.Join(errs...)
}

// Delete removes a value from every layer
func (c *LayeredCache) Delete(key string) error {
	var errs []error
	if c.memory != nil {
		errs = append(errs, c.memory.Delete(key))
	}
	if c.disk != nil {
		errs = append(errs, c.disk.Delete(key))
	}
	return errors.Join(errs...)
}

// Clear empties every layer
func (c *LayeredCache) Clear() error {
	var errs []error
	if c.memory != nil {
		errs = append(errs, c.memory.Clear())
	}
	if c.disk != nil {
		errs = append(errs, c.disk.Clear())
	}
	return errors.Join(errs...)
}

// Stats returns hit and miss counts since creation
func (c *LayeredCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

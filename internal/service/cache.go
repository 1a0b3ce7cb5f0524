package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mesh-intelligence/collab/pkg/types"
)

// artifactCache holds hydrated file artifacts by ID. A nil cache is valid
// and caches nothing. Entries are cloned in and out so callers never share
// revision slices with the cache.
type artifactCache struct {
	lru *expirable.LRU[string, *types.FileArtifact]
}

// newArtifactCache returns nil when size is not positive. A zero ttl keeps
// entries until they are evicted or invalidated.
func newArtifactCache(size int, ttl time.Duration) *artifactCache {
	if size <= 0 {
		return nil
	}
	return &artifactCache{lru: expirable.NewLRU[string, *types.FileArtifact](size, nil, ttl)}
}

func (c *artifactCache) get(id string) (*types.FileArtifact, bool) {
	if c == nil {
		return nil, false
	}
	f, ok := c.lru.Get(id)
	if !ok {
		cacheMissesTotal.Inc()
		return nil, false
	}
	cacheHitsTotal.Inc()
	return f.Clone(), true
}

func (c *artifactCache) set(f *types.FileArtifact) {
	if c == nil {
		return
	}
	c.lru.Add(f.FileID, f.Clone())
}

func (c *artifactCache) remove(id string) {
	if c == nil {
		return
	}
	c.lru.Remove(id)
}

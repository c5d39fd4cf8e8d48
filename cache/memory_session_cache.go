package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/authcore-io/authcore/domain"
)

// MemorySessionCache implements SessionCache with ttlcache. Suitable for
// single-node deployments and tests; multi-node deployments use the Redis
// implementation so invalidations are shared.
type MemorySessionCache struct {
	cache *ttlcache.Cache[string, *domain.Session]
}

// NewMemorySessionCache creates an in-memory session cache with automatic
// expiry cleanup.
//
//nolint:ireturn
func NewMemorySessionCache() *MemorySessionCache {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, *domain.Session](),
	)

	go cache.Start()

	return &MemorySessionCache{cache: cache}
}

// Set implements SessionCache.Set.
func (c *MemorySessionCache) Set(_ context.Context, session *domain.Session) error {
	ttl := time.Until(time.Unix(session.EndsAt, 0))
	if ttl <= 0 {
		return nil
	}
	c.cache.Set(session.ID, session, ttl)
	return nil
}

// Get implements SessionCache.Get.
func (c *MemorySessionCache) Get(_ context.Context, id string) (*domain.Session, error) {
	item := c.cache.Get(id)
	if item == nil {
		return nil, ErrCacheMiss
	}
	return item.Value(), nil
}

// Delete implements SessionCache.Delete.
func (c *MemorySessionCache) Delete(_ context.Context, id string) error {
	c.cache.Delete(id)
	return nil
}

// Stop halts the background cleanup goroutine.
func (c *MemorySessionCache) Stop() {
	c.cache.Stop()
}

var _ SessionCache = (*MemorySessionCache)(nil)

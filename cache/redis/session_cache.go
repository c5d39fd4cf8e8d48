package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/authcore-io/authcore/cache"
	"github.com/authcore-io/authcore/domain"
)

// SessionCache implements cache.SessionCache on Redis. Entries expire with the
// session's own validity window, so the cache can never outlive the session it
// mirrors.
type SessionCache struct {
	client *redis.Client
	prefix string
}

// NewSessionCache creates a new [SessionCache] instance.
func NewSessionCache(client *redis.Client, prefix string) *SessionCache {
	return &SessionCache{
		client: client,
		prefix: prefix,
	}
}

func (c *SessionCache) key(id string) string {
	return fmt.Sprintf("%s:session:%s", c.prefix, id)
}

// Set implements cache.SessionCache.Set.
func (c *SessionCache) Set(ctx context.Context, session *domain.Session) error {
	ttl := time.Until(time.Unix(session.EndsAt, 0))
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := c.client.Set(ctx, c.key(session.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session in redis: %w", err)
	}
	return nil
}

// Get implements cache.SessionCache.Get.
func (c *SessionCache) Get(ctx context.Context, id string) (*domain.Session, error) {
	payload, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		// Treat a corrupt entry as a miss so the store stays authoritative.
		return nil, cache.ErrCacheMiss
	}
	return &session, nil
}

// Delete implements cache.SessionCache.Delete.
func (c *SessionCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}

var _ cache.SessionCache = (*SessionCache)(nil)

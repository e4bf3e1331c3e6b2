package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS CACHE
// Caches the serialized progress response per user. Invalidated on every XP
// mutation, so a stale window only exists between the DB commit and the DEL.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressCache implements xp.ProgressCache backed by Redis strings.
type ProgressCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProgressCache creates a progress cache with the given TTL. A zero or
// negative TTL falls back to five minutes.
func NewProgressCache(client *redis.Client, ttl time.Duration) *ProgressCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProgressCache{client: client, ttl: ttl}
}

func progressKey(userID string) string {
	return PrefixProgress + userID
}

// Get returns the cached payload for the user. The second return value is
// false on a miss.
func (c *ProgressCache) Get(ctx context.Context, userID string) ([]byte, bool, error) {
	if userID == "" {
		return nil, false, ErrKeyEmpty
	}

	data, err := c.client.Get(ctx, progressKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached progress: %w", err)
	}

	return data, true, nil
}

// Set stores the payload for the user under the configured TTL.
func (c *ProgressCache) Set(ctx context.Context, userID string, payload []byte) error {
	if userID == "" {
		return ErrKeyEmpty
	}

	if err := c.client.Set(ctx, progressKey(userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache progress: %w", err)
	}
	return nil
}

// Invalidate drops the cached payload for the user. Missing keys are not an
// error.
func (c *ProgressCache) Invalidate(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrKeyEmpty
	}

	if err := c.client.Del(ctx, progressKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached progress: %w", err)
	}
	return nil
}

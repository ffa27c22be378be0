package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCache caches profiles as JSON under profile:<id>
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a profile cache
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("profile:%s", id)
}

// Get implements Cache
func (c *RedisCache) Get(ctx context.Context, id uuid.UUID) (*Profile, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read cached profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return &p, nil
}

// Set implements Cache
func (c *RedisCache) Set(ctx context.Context, p *Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(p.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache profile: %w", err)
	}
	return nil
}

// Delete implements Cache
func (c *RedisCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to evict cached profile: %w", err)
	}
	return nil
}

type nopCache struct{}

func (nopCache) Get(context.Context, uuid.UUID) (*Profile, error) { return nil, nil }
func (nopCache) Set(context.Context, *Profile) error              { return nil }
func (nopCache) Delete(context.Context, uuid.UUID) error          { return nil }

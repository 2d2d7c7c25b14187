package activities

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/semana-app/companion/internal/models"
)

const scheduleKey = "programacao:all"

// RedisCache is a cache-aside store for the full schedule list.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache creates a schedule cache. A nil client disables caching.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached schedule, or nil when absent or caching is disabled.
func (c *RedisCache) Get(ctx context.Context) ([]models.Activity, error) {
	if c == nil || c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, scheduleKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []models.Activity
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Set stores the schedule.
func (c *RedisCache) Set(ctx context.Context, list []models.Activity) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, scheduleKey, b, c.ttl).Err()
}

// Invalidate drops the cached schedule.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, scheduleKey).Err()
}

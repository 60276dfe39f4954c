package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache backs the result cache with Redis, for deployments that
// share the cache across multiple orchestrator processes.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis builds a Cache over an existing Redis client.
func NewRedis(client *redis.Client, ttl time.Duration, keyPrefix string) Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if keyPrefix == "" {
		keyPrefix = "taskflow:cache:"
	}
	return &redisCache{client: client, ttl: ttl, prefix: keyPrefix}
}

func (c *redisCache) Get(ctx context.Context, key string) (map[string]any, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, err
	}
	return result, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, result map[string]any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

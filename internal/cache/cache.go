// Package cache provides a redis-backed cache for derived pixel
// information, saving repeated image-server lookups across requests.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jo-hoe/slideframe/internal/host"
)

const keyPrefix = "slideframe:pixels:"

// PixelInfoCache caches derived pixel metadata keyed by entry id.
type PixelInfoCache interface {
	Get(ctx context.Context, entryID string) (*host.PixelInfo, bool, error)
	Set(ctx context.Context, entryID string, info *host.PixelInfo) error
}

// RedisCache implements PixelInfoCache on a redis server.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to the given redis address. A zero ttl keeps
// cached values indefinitely.
func NewRedisCache(address, password string, db int, ttl time.Duration) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: client, ttl: ttl}
}

// Ping verifies the connection to the redis server.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Get(ctx context.Context, entryID string) (*host.PixelInfo, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+entryID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read pixel info from cache: %w", err)
	}
	info := &host.PixelInfo{}
	if err := json.Unmarshal(data, info); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached pixel info: %w", err)
	}
	return info, true, nil
}

func (c *RedisCache) Set(ctx context.Context, entryID string, info *host.PixelInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode pixel info: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+entryID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write pixel info to cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached pixel info of an entry.
func (c *RedisCache) Invalidate(ctx context.Context, entryID string) error {
	return c.client.Del(ctx, keyPrefix+entryID).Err()
}

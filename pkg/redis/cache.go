package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyLastCycle holds the most recent cycle summary.
// status 커맨드와 /api/status 가 같은 키를 읽는다
const KeyLastCycle = "cycle:last"

// TTLLastCycle keeps the summary through a full session day
const TTLLastCycle = 24 * time.Hour

// Cache stores JSON snapshots in Redis under a namespace prefix.
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a cache helper on top of an optional client
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Get unmarshals the cached value into dest. The bool is false on a
// miss; Redis가 꺼져 있으면 항상 미스.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal %s: %w", key, err)
	}

	return true, nil
}

// Set stores value as JSON with the given TTL. With Redis disabled
// this is a no-op so the engine runs without a cache.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}

	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

func (c *Cache) fullKey(key string) string {
	return c.prefix + ":cache:" + key
}

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ItemsCacheKey is the Redis key holding the cached item list.
const ItemsCacheKey = "catalog:items"

// Cache wraps Redis helpers for JSON payloads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate drops key from the cache.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}

// CachedSource serves items from Redis and falls back to Origin on a miss.
// Cache failures degrade to the origin rather than failing the load.
type CachedSource struct {
	Origin Source
	Cache  *Cache
	Key    string
}

func (s CachedSource) key() string {
	if s.Key == "" {
		return ItemsCacheKey
	}
	return s.Key
}

// Load implements Source.
func (s CachedSource) Load(ctx context.Context) ([]Item, error) {
	if s.Origin == nil {
		return nil, errors.New("catalog: origin source not configured")
	}
	var items []Item
	if hit, err := s.Cache.GetJSON(ctx, s.key(), &items); err == nil && hit {
		return items, nil
	}
	items, err := s.Origin.Load(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.Cache.SetJSON(ctx, s.key(), items)
	return items, nil
}

// Refresh drops the cached copy so the next Load reaches the origin.
func (s CachedSource) Refresh(ctx context.Context) error {
	return s.Cache.Invalidate(ctx, s.key())
}

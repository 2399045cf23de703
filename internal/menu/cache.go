package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const menuListKey = "menu:items:all"

// Cache holds the unfiltered menu list.
type Cache interface {
	Get(ctx context.Context) ([]Item, bool, error)
	Set(ctx context.Context, items []Item) error
	Invalidate(ctx context.Context) error
}

type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: client, TTL: ttl}
}

func (c *RedisCache) Get(ctx context.Context) ([]Item, bool, error) {
	raw, err := c.Client.Get(ctx, menuListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get menu: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("cache: decode menu: %w", err)
	}
	return items, true, nil
}

func (c *RedisCache) Set(ctx context.Context, items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("cache: encode menu: %w", err)
	}
	return c.Client.Set(ctx, menuListKey, raw, c.TTL).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.Client.Del(ctx, menuListKey).Err()
}

type noCache struct{}

func (noCache) Get(context.Context) ([]Item, bool, error) { return nil, false, nil }
func (noCache) Set(context.Context, []Item) error          { return nil }
func (noCache) Invalidate(context.Context) error           { return nil }

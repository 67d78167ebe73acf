package words

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 10 * time.Minute

// Cache stores resolved word lists in Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ListCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(listID string) string {
	return "wordlist:" + listID
}

func (c *Cache) Get(ctx context.Context, listID string) (*List, error) {
	data, err := c.client.Get(ctx, c.key(listID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var list List
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Cache) Set(ctx context.Context, list List) error {
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(list.ID), data, c.ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, listID string) error {
	return c.client.Del(ctx, c.key(listID)).Err()
}

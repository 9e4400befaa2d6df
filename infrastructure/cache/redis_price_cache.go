package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"github.com/costra/costra/application/port/outbound"
)

// RedisPriceCache stores latest-price values as decimal strings so no
// precision is lost on the round trip.
type RedisPriceCache struct {
	client *redis.Client
}

func NewRedisPriceCache(client *redis.Client) outbound.PriceCache {
	return &RedisPriceCache{client: client}
}

func (c *RedisPriceCache) Get(ctx context.Context, key string) (decimal.Decimal, bool, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to read price cache: %w", err)
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		// A corrupt entry behaves like a miss; the caller will repopulate it.
		return decimal.Zero, false, nil
	}
	return value, true, nil
}

func (c *RedisPriceCache) Set(ctx context.Context, key string, value decimal.Decimal, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to write price cache: %w", err)
	}
	return nil
}

// NewClient connects to Redis from a URL and verifies the connection.
func NewClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

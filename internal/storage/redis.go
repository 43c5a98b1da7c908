package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reward-scanner/internal/config"
	"github.com/reward-scanner/internal/types"
)

// PriceCache keeps oracle quotes by block height across runs.
// Historical quotes never change, so entries normally have no expiry.
type PriceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPriceCache connects to Redis and verifies the connection
func NewRedisPriceCache(cfg *config.RedisConfig) (*PriceCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewPriceCache(client, cfg.PriceTTL), nil
}

// NewPriceCache wraps an existing Redis client
func NewPriceCache(client *redis.Client, ttl time.Duration) *PriceCache {
	return &PriceCache{client: client, ttl: ttl}
}

// Close closes the Redis connection
func (c *PriceCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func priceKey(height int64) string {
	return fmt.Sprintf("oracle:price:%d", height)
}

// Lookup returns the cached quote for a block height.
// The boolean is false on a cache miss.
func (c *PriceCache) Lookup(ctx context.Context, height int64) (*types.BlockPrice, bool, error) {
	raw, err := c.client.Get(ctx, priceKey(height)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("price cache get %d: %w", height, err)
	}

	var quote types.BlockPrice
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, false, fmt.Errorf("price cache decode %d: %w", height, err)
	}
	return &quote, true, nil
}

// Store saves a quote under its block height
func (c *PriceCache) Store(ctx context.Context, quote *types.BlockPrice) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("price cache encode %d: %w", quote.Height, err)
	}
	if err := c.client.Set(ctx, priceKey(quote.Height), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("price cache set %d: %w", quote.Height, err)
	}
	return nil
}

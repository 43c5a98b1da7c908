package storage

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reward-scanner/internal/config"
	"github.com/reward-scanner/internal/types"
)

func setupTestPriceCache(t *testing.T, ttl time.Duration) (*PriceCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewPriceCache(client, ttl)
	t.Cleanup(func() { _ = cache.Close() })

	return cache, mr
}

func TestPriceCache_StoreAndLookup(t *testing.T) {
	cache, mr := setupTestPriceCache(t, 0)
	ctx := testContext(t)

	_, found, err := cache.Lookup(ctx, 100)
	require.NoError(t, err)
	assert.False(t, found)

	quote := &types.BlockPrice{Height: 100, Price: 200000000, Timestamp: 1609459300}
	require.NoError(t, cache.Store(ctx, quote))

	got, found, err := cache.Lookup(ctx, 100)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, quote, got)

	assert.True(t, mr.Exists("oracle:price:100"))
	assert.Equal(t, time.Duration(0), mr.TTL("oracle:price:100"))
}

func TestPriceCache_TTL(t *testing.T) {
	cache, mr := setupTestPriceCache(t, time.Hour)
	ctx := testContext(t)

	require.NoError(t, cache.Store(ctx, &types.BlockPrice{Height: 5, Price: 1}))
	assert.Equal(t, time.Hour, mr.TTL("oracle:price:5"))

	mr.FastForward(2 * time.Hour)
	_, found, err := cache.Lookup(ctx, 5)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPriceCache_CorruptEntry(t *testing.T) {
	cache, mr := setupTestPriceCache(t, 0)
	require.NoError(t, mr.Set("oracle:price:7", "not-json"))

	_, _, err := cache.Lookup(testContext(t), 7)
	require.Error(t, err)
}

func TestNewRedisPriceCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cache, err := NewRedisPriceCache(&config.RedisConfig{Host: mr.Host(), Port: mr.Port()})
	require.NoError(t, err)
	require.NoError(t, cache.Close())

	_, err = NewRedisPriceCache(&config.RedisConfig{Host: "127.0.0.1", Port: "1"})
	require.Error(t, err)
}

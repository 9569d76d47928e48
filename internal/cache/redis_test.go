package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Runs against a live server when CODONYX_TEST_REDIS_ADDR is set.
func TestRedisStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("CODONYX_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CODONYX_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	client, err := NewRedisClient(ctx, RedisConfig{Address: addr, Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client)
	key := "test:" + t.Name()
	t.Cleanup(func() { _ = store.Delete(ctx, key, key+":rl") })

	require.NoError(t, store.Set(ctx, key, []byte("v"), time.Minute))
	value, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), value)

	count, ttl, err := store.IncrementWithTTL(ctx, key+":rl", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Greater(t, ttl, time.Duration(0))
}

func TestNewRedisClientRequiresAddress(t *testing.T) {
	_, err := NewRedisClient(context.Background(), RedisConfig{})
	require.ErrorContains(t, err, "address is required")
}

func TestRedisStorePrefixesKeys(t *testing.T) {
	require.Nil(t, NewRedisStore(nil))
	store := &RedisStore{prefix: redisKeyPrefix}
	require.Equal(t, "codonyx:rate:1.2.3.4", store.key("rate:1.2.3.4"))
}

package ratelimit

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestLimiterBudget(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	limiter := NewLimiter(client, 3, time.Minute)

	ip := "ip-" + uuid.NewString()
	t.Cleanup(func() {
		client.Del(context.Background(), getIPKey(ip, "signup"), getIPKey(ip, "login"))
	})

	for i := 0; i < 3; i++ {
		allowed, err := limiter.AllowIPRequestWithPurpose(ctx, ip, "signup")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
	}

	allowed, err := limiter.AllowIPRequestWithPurpose(ctx, ip, "signup")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Budgets are tracked per purpose
	allowed, err = limiter.AllowIPRequestWithPurpose(ctx, ip, "login")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLimiterConcurrentRequests(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	limiter := NewLimiter(client, 5, time.Minute)

	ip := "ip-" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), getIPKey(ip, "signup")) })

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := limiter.AllowIPRequestWithPurpose(ctx, ip, "signup")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, allowed)
}

func TestLimiterWindowExpires(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	limiter := NewLimiter(client, 1, time.Minute)

	ip := "ip-" + uuid.NewString()
	key := getIPKey(ip, "login")
	t.Cleanup(func() { client.Del(context.Background(), key) })

	allowed, err := limiter.AllowIPRequestWithPurpose(ctx, ip, "login")
	require.NoError(t, err)
	assert.True(t, allowed)

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, client.Del(ctx, key).Err())
	allowed, err = limiter.AllowIPRequestWithPurpose(ctx, ip, "login")
	require.NoError(t, err)
	assert.True(t, allowed)
}

package todo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())

	cache := NewRedisCache(rdb, time.Minute)
	owner := bson.NewObjectID().Hex()
	t.Cleanup(func() {
		ctx := context.Background()
		keys := []string{keyGenPrefix + owner}
		for gen := int64(0); gen <= 2; gen++ {
			keys = append(keys, listKey(owner, gen))
		}
		_ = rdb.Del(ctx, keys...).Err()
	})

	gen, err := cache.Generation(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	list, err := cache.GetList(ctx, owner, gen)
	require.NoError(t, err)
	assert.Nil(t, list)

	at := int64(1_700_000_000_000)
	want := []Todo{
		{ID: bson.NewObjectID().Hex(), Text: "open", CreatorID: owner},
		{ID: bson.NewObjectID().Hex(), Text: "done", Completed: true, CompletedAt: &at, CreatorID: owner},
	}
	require.NoError(t, cache.SetList(ctx, owner, gen, want))

	list, err = cache.GetList(ctx, owner, gen)
	require.NoError(t, err)
	assert.Equal(t, want, list)

	ttl, err := rdb.TTL(ctx, listKey(owner, gen)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cache.Invalidate(ctx, owner))
	next, err := cache.Generation(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, gen+1, next)

	list, err = cache.GetList(ctx, owner, next)
	require.NoError(t, err)
	assert.Nil(t, list)

	// A fill that read before the write lands under the old generation
	require.NoError(t, cache.SetList(ctx, owner, gen, want[:1]))
	list, err = cache.GetList(ctx, owner, next)
	require.NoError(t, err)
	assert.Nil(t, list)

	// An empty list is a hit, not a miss
	require.NoError(t, cache.SetList(ctx, owner, next, []Todo{}))
	list, err = cache.GetList(ctx, owner, next)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

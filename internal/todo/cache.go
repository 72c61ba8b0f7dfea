package todo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyListPrefix = "todo:list:"
	keyGenPrefix  = "todo:gen:"
)

// ListCache caches a user's todo list between writes.
//
// Entries are stored under the user's generation. Invalidate bumps the
// generation, so a list filled from a read that raced a write lands under a
// generation nobody asks for again.
type ListCache interface {
	Generation(ctx context.Context, creatorID string) (int64, error)
	GetList(ctx context.Context, creatorID string, gen int64) ([]Todo, error)
	SetList(ctx context.Context, creatorID string, gen int64, list []Todo) error
	Invalidate(ctx context.Context, creatorID string) error
}

// RedisCache is a ListCache in Redis. A miss returns a nil list and no error.
// Generation counters have no expiry; list entries expire after ttl.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func listKey(creatorID string, gen int64) string {
	return fmt.Sprintf("%s%s:%d", keyListPrefix, creatorID, gen)
}

func (c *RedisCache) Generation(ctx context.Context, creatorID string) (int64, error) {
	gen, err := c.rdb.Get(ctx, keyGenPrefix+creatorID).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

func (c *RedisCache) GetList(ctx context.Context, creatorID string, gen int64) ([]Todo, error) {
	b, err := c.rdb.Get(ctx, listKey(creatorID, gen)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	list := []Todo{}
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *RedisCache) SetList(ctx context.Context, creatorID string, gen int64, list []Todo) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, listKey(creatorID, gen), b, c.ttl).Err()
}

// Invalidate moves the user to a new generation. Entries of older
// generations are left to expire.
func (c *RedisCache) Invalidate(ctx context.Context, creatorID string) error {
	return c.rdb.Incr(ctx, keyGenPrefix+creatorID).Err()
}

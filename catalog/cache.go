package catalog

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// HintCache remembers which partition a product id was last seen in, so
// GetByID can try a point read before falling back to a full-table scan.
// A hint is advisory: a miss or a stale entry only costs the fallback scan.
type HintCache interface {
	GetPartition(ctx context.Context, id string) (string, bool)
	SetPartition(ctx context.Context, id, partitionKey string)
	Invalidate(ctx context.Context, id string)
}

// RedisHintCache backs HintCache with redis. Cache failures are logged and
// swallowed; the catalog works without the cache, just slower.
type RedisHintCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisHintCache connects a hint cache to the redis instance at addr.
func NewRedisHintCache(addr, password string, db int, ttl time.Duration, log zerolog.Logger) *RedisHintCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisHintCache{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("cache", "catalog-partition-hints").Logger(),
	}
}

func hintKey(id string) string { return "catalog:partition:" + id }

func (c *RedisHintCache) GetPartition(ctx context.Context, id string) (string, bool) {
	val, err := c.client.Get(ctx, hintKey(id)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.log.Debug().Err(err).Str("product_id", id).Msg("hint lookup failed")
		return "", false
	}
	return val, true
}

func (c *RedisHintCache) SetPartition(ctx context.Context, id, partitionKey string) {
	if err := c.client.Set(ctx, hintKey(id), partitionKey, c.ttl).Err(); err != nil {
		c.log.Debug().Err(err).Str("product_id", id).Msg("hint store failed")
	}
}

func (c *RedisHintCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, hintKey(id)).Err(); err != nil {
		c.log.Debug().Err(err).Str("product_id", id).Msg("hint invalidation failed")
	}
}

// Close releases the underlying redis connection.
func (c *RedisHintCache) Close() error { return c.client.Close() }

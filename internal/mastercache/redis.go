package mastercache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"github.com/spediralabs/spedira/internal/observability"
	pricelistdomain "github.com/spediralabs/spedira/internal/pricelist/domain"
	"go.uber.org/zap"
)

// All workspaces live in one hash so Invalidate is a single DEL.
const masterHashKey = "spedira:master_lists"

type RedisCache struct {
	client  *redis.Client
	log     *zap.Logger
	loader  Loader
	ttl     time.Duration
	metrics *observability.Metrics
}

func NewRedisCache(client *redis.Client, log *zap.Logger, loader Loader, ttl time.Duration, metrics *observability.Metrics) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{
		client:  client,
		log:     log.Named("mastercache"),
		loader:  loader,
		ttl:     ttl,
		metrics: metrics,
	}
}

// Get returns the cached master list, loading and storing it on a miss.
// A (nil, nil) return means the workspace has no active master list;
// absence is not cached so a later activation is picked up immediately.
func (c *RedisCache) Get(ctx context.Context, workspaceID snowflake.ID) (*pricelistdomain.PriceList, error) {
	field := workspaceID.String()

	raw, err := c.client.HGet(ctx, masterHashKey, field).Result()
	if err == nil {
		var list pricelistdomain.PriceList
		if jsonErr := json.Unmarshal([]byte(raw), &list); jsonErr == nil {
			if c.metrics != nil {
				c.metrics.MasterCacheHits.Inc()
			}
			return &list, nil
		}
		// Corrupt payload: fall through to a reload.
		c.log.Warn("discarding unreadable cached master list", zap.String("workspace_id", field))
	} else if err != redis.Nil {
		// Redis being down degrades to a direct store read.
		c.log.Error("master cache read failed", zap.Error(err))
	}

	if c.metrics != nil {
		c.metrics.MasterCacheMisses.Inc()
	}

	list, err := c.loader(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, nil
	}

	if raw, err := json.Marshal(list); err == nil {
		pipe := c.client.Pipeline()
		pipe.HSet(ctx, masterHashKey, field, raw)
		pipe.Expire(ctx, masterHashKey, c.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			c.log.Error("master cache write failed", zap.Error(err))
		}
	}

	return list, nil
}

// Invalidate drops every cached master list. Last write wins; concurrent
// readers may repopulate from fresh store data immediately after.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if c.metrics != nil {
		c.metrics.CacheInvalidation.Inc()
	}
	return c.client.Del(ctx, masterHashKey).Err()
}

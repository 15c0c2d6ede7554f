// Package cache keeps read-mostly records in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/wayakart27/ecommerce-sub002/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/zeebo/errs"
)

// Error is the error class for cache failures.
var Error = errs.Class("cache")

const shippingConfigKey = "shipping:config:active"

// ShippingConfigCache stores the active shipping configuration as JSON. A nil
// client turns every call into a miss or a no-op.
type ShippingConfigCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewShippingConfigCache(rdb *redis.Client, ttl time.Duration) *ShippingConfigCache {
	return &ShippingConfigCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached configuration and whether it was present.
func (c *ShippingConfigCache) Get(ctx context.Context) (*models.ShippingConfig, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, nil
	}
	raw, err := c.rdb.Get(ctx, shippingConfigKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, Error.Wrap(err)
	}
	var cfg models.ShippingConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		// A payload from an older layout is treated as a miss.
		_ = c.rdb.Del(ctx, shippingConfigKey).Err()
		return nil, false, nil
	}
	return &cfg, true, nil
}

func (c *ShippingConfigCache) Set(ctx context.Context, cfg *models.ShippingConfig) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return Error.Wrap(err)
	}
	return Error.Wrap(c.rdb.Set(ctx, shippingConfigKey, raw, c.ttl).Err())
}

// Invalidate drops the cached configuration after an admin write.
func (c *ShippingConfigCache) Invalidate(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return Error.Wrap(c.rdb.Del(ctx, shippingConfigKey).Err())
}

// Package cache provides a Redis-backed product cache: a get/set/forget
// seam in front of the products table. It is a performance aid only; no
// write path consults it, and every committed stock mutation forgets the
// entry it touched.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/flashsale/checkout/internal/db"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "product:"

type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{client: client, ttl: ttl}
}

// Get returns the cached product, or (zero, false) on a cache miss.
// A Redis error is swallowed into a miss — the cache is never a source of
// truth, so callers fall back to the database.
func (c *ProductCache) Get(ctx context.Context, productID int64) (db.Product, bool) {
	if c == nil || c.client == nil {
		return db.Product{}, false
	}
	raw, err := c.client.Get(ctx, key(productID)).Bytes()
	if err != nil {
		return db.Product{}, false
	}
	var p db.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return db.Product{}, false
	}
	return p, true
}

// Set populates the cache entry for p with the configured TTL.
func (c *ProductCache) Set(ctx context.Context, p db.Product) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(p.ID), raw, c.ttl).Err()
}

// Forget invalidates the cache entry for productID. Called after every
// committed transaction that mutated the product's stock.
func (c *ProductCache) Forget(ctx context.Context, productID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Del(ctx, key(productID)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func key(productID int64) string {
	return keyPrefix + strconv.FormatInt(productID, 10)
}

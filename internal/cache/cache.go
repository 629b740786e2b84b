// Package cache keeps read-mostly product documents in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ProductCache caches products by ID. Get returns nil, nil on a miss.
type ProductCache interface {
	Get(ctx context.Context, id string) (*model.Product, error)
	Set(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id string) error
}

type redisProductCache struct {
	client    redis.UniversalClient
	namespace string
	ttl       time.Duration
	logger    zerolog.Logger
}

// NewRedisProductCache creates a product cache backed by client.
func NewRedisProductCache(client redis.UniversalClient, namespace string, ttl time.Duration, logger zerolog.Logger) ProductCache {
	return &redisProductCache{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger.With().Str("component", "product-cache").Logger(),
	}
}

// Key builds the namespaced key for an operation and identifier.
func Key(namespace, operation, id string) string {
	return fmt.Sprintf("%s:%s:%s", namespace, operation, id)
}

func (c *redisProductCache) key(id string) string {
	return Key(c.namespace, "product", id)
}

func (c *redisProductCache) Get(ctx context.Context, id string) (*model.Product, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached product: %w", err)
	}

	var p model.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		// A stale or foreign payload is treated as a miss and evicted.
		c.logger.Warn().Err(err).Str("product_id", id).Msg("discarding undecodable cache entry")
		_ = c.client.Del(ctx, c.key(id)).Err()
		return nil, nil
	}
	return &p, nil
}

func (c *redisProductCache) Set(ctx context.Context, p *model.Product) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode product: %w", err)
	}
	if err := c.client.Set(ctx, c.key(p.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache product: %w", err)
	}
	return nil
}

func (c *redisProductCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to evict product: %w", err)
	}
	return nil
}

// nopCache is used when Redis is disabled.
type nopCache struct{}

// NewNop returns a cache that never stores anything.
func NewNop() ProductCache {
	return nopCache{}
}

func (nopCache) Get(context.Context, string) (*model.Product, error) { return nil, nil }
func (nopCache) Set(context.Context, *model.Product) error            { return nil }
func (nopCache) Delete(context.Context, string) error                 { return nil }

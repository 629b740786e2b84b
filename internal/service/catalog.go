package service

import (
	"context"
	"fmt"

	"marketplace/internal/cache"
	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/rs/zerolog"
)

// Catalog is a read-through product lookup shared by the services. Cache
// failures are logged and fall through to the database.
type Catalog struct {
	repo   repository.ProductRepository
	cache  cache.ProductCache
	logger zerolog.Logger
}

// NewCatalog creates a product lookup over repo and c.
func NewCatalog(repo repository.ProductRepository, c cache.ProductCache, logger zerolog.Logger) *Catalog {
	if c == nil {
		c = cache.NewNop()
	}
	return &Catalog{
		repo:   repo,
		cache:  c,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// Get returns the product or nil when it does not exist.
func (c *Catalog) Get(ctx context.Context, id string) (*model.Product, error) {
	p, err := c.cache.Get(ctx, id)
	if err != nil {
		c.logger.Warn().Err(err).Str("product_id", id).Msg("product cache read failed")
	}
	if p != nil {
		return p, nil
	}

	p, err = c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if p == nil {
		return nil, nil
	}

	if err := c.cache.Set(ctx, p); err != nil {
		c.logger.Warn().Err(err).Str("product_id", id).Msg("product cache write failed")
	}
	return p, nil
}

// Invalidate drops cached copies of the given products.
func (c *Catalog) Invalidate(ctx context.Context, ids ...string) {
	for _, id := range ids {
		if err := c.cache.Delete(ctx, id); err != nil {
			c.logger.Warn().Err(err).Str("product_id", id).Msg("product cache eviction failed")
		}
	}
}

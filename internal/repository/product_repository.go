package repository

import (
	"context"
	"errors"
	"fmt"

	"marketplace/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `id, seller_id, name, description, category, price, discounted_price,
	stock, stock_status, tax_percentage, images, has_variations, attributes, variants,
	created_at, updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.SellerID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.Price,
		&p.DiscountedPrice,
		&p.Stock,
		&p.StockStatus,
		&p.TaxPercentage,
		&p.Images,
		&p.HasVariations,
		&p.Attributes,
		&p.Variants,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// jsonbSlices replaces nil JSONB-backed slices so they are stored as [] rather than NULL.
func jsonbSlices(p *model.Product) {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Attributes == nil {
		p.Attributes = []model.Attribute{}
	}
	if p.Variants == nil {
		p.Variants = []model.Variant{}
	}
	for i := range p.Variants {
		if p.Variants[i].Images == nil {
			p.Variants[i].Images = []string{}
		}
	}
}

// Create inserts a new product.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	jsonbSlices(p)

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.SellerID, p.Name, p.Description, p.Category, p.Price, p.DiscountedPrice,
		p.Stock, p.StockStatus, p.TaxPercentage, p.Images, p.HasVariations, p.Attributes, p.Variants,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrProductExists
		}
		r.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().Str("product_id", p.ID).Msg("product created successfully")
	return nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY name`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}

	products, err := collectProducts(rows)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read product rows")
		return nil, err
	}
	return products, nil
}

// List retrieves a seller's products with pagination support. A nil seller
// lists across all sellers.
func (r *productRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1::uuid IS NULL OR seller_id = $1)
		  AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4
	`

	var sellerID *uuid.UUID
	if filter.SellerID != uuid.Nil {
		sellerID = &filter.SellerID
	}

	rows, err := r.pool.Query(ctx, query, sellerID, filter.Category, filter.Limit, filter.Offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := collectProducts(rows)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read product rows")
		return nil, err
	}
	return products, nil
}

// Update replaces the mutable fields of a seller's product.
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	jsonbSlices(p)

	query := `
		UPDATE products
		SET name = $3, description = $4, category = $5, price = $6, discounted_price = $7,
			stock = $8, stock_status = $9, tax_percentage = $10, images = $11,
			has_variations = $12, attributes = $13, variants = $14, updated_at = $15
		WHERE id = $1 AND seller_id = $2
	`

	tag, err := r.pool.Exec(ctx, query,
		p.ID, p.SellerID, p.Name, p.Description, p.Category, p.Price, p.DiscountedPrice,
		p.Stock, p.StockStatus, p.TaxPercentage, p.Images, p.HasVariations, p.Attributes, p.Variants,
		p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// Delete removes a seller's product.
func (r *productRepository) Delete(ctx context.Context, sellerID uuid.UUID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1 AND seller_id = $2`, id, sellerID)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	r.logger.Debug().Str("product_id", id).Msg("product deleted")
	return nil
}

// LockForUpdate loads products with FOR UPDATE inside tx. Rows are locked in
// id order so concurrent checkouts cannot deadlock.
func (r *productRepository) LockForUpdate(ctx context.Context, tx pgx.Tx, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to lock products")
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}

	products, err := collectProducts(rows)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read locked product rows")
		return nil, err
	}
	return products, nil
}

// UpdateStock writes stock, stock status and variant stock of a locked product.
func (r *productRepository) UpdateStock(ctx context.Context, tx pgx.Tx, p *model.Product) error {
	jsonbSlices(p)

	query := `
		UPDATE products
		SET stock = $2, stock_status = $3, variants = $4, updated_at = $5
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query, p.ID, p.Stock, p.StockStatus, p.Variants, p.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to update stock")
		return fmt.Errorf("failed to update stock: %w", err)
	}

	return nil
}

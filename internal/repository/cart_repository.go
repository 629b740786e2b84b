package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// cartRepository stores each cart as one JSONB document keyed by customer.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// Get retrieves a customer's cart.
func (r *cartRepository) Get(ctx context.Context, customerID uuid.UUID) (*model.Cart, error) {
	cart := &model.Cart{CustomerID: customerID}

	err := r.pool.QueryRow(ctx,
		`SELECT items, updated_at FROM carts WHERE customer_id = $1`, customerID,
	).Scan(&cart.Items, &cart.UpdatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error().Err(err).Str("customer_id", customerID.String()).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}
	return cart, nil
}

// Save upserts the cart.
func (r *cartRepository) Save(ctx context.Context, cart *model.Cart) error {
	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}

	query := `
		INSERT INTO carts (customer_id, items, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id) DO UPDATE SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.pool.Exec(ctx, query, cart.CustomerID, cart.Items, cart.UpdatedAt); err != nil {
		r.logger.Error().Err(err).Str("customer_id", cart.CustomerID.String()).Msg("failed to save cart")
		return fmt.Errorf("failed to save cart: %w", err)
	}

	return nil
}

// Clear empties the cart within tx.
func (r *cartRepository) Clear(ctx context.Context, tx pgx.Tx, customerID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE carts SET items = '[]'::jsonb, updated_at = $2 WHERE customer_id = $1`,
		customerID, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("customer_id", customerID.String()).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

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

type sellerRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSellerRepository creates a new PostgreSQL-backed seller repository.
func NewSellerRepository(pool *pgxpool.Pool, logger zerolog.Logger) SellerRepository {
	return &sellerRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "seller").Logger(),
	}
}

func (r *sellerRepository) Create(ctx context.Context, s *model.Seller) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sellers (id, name, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.Name, s.Email, s.PasswordHash, s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrSellerExists
		}
		r.logger.Error().Err(err).Msg("failed to create seller")
		return fmt.Errorf("failed to create seller: %w", err)
	}
	return nil
}

func (r *sellerRepository) getOne(ctx context.Context, query string, arg any) (*model.Seller, error) {
	var s model.Seller
	err := r.pool.QueryRow(ctx, query, arg).Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query seller")
		return nil, fmt.Errorf("failed to query seller: %w", err)
	}
	return &s, nil
}

func (r *sellerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Seller, error) {
	return r.getOne(ctx, `SELECT id, name, email, password_hash, created_at FROM sellers WHERE id = $1`, id)
}

func (r *sellerRepository) GetByEmail(ctx context.Context, email string) (*model.Seller, error) {
	return r.getOne(ctx, `SELECT id, name, email, password_hash, created_at FROM sellers WHERE lower(email) = lower($1)`, email)
}

func (r *sellerRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Seller, error) {
	if len(ids) == 0 {
		return []model.Seller{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, password_hash, created_at FROM sellers WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query sellers by IDs")
		return nil, fmt.Errorf("failed to query sellers by IDs: %w", err)
	}
	defer rows.Close()

	sellers := []model.Seller{}
	for rows.Next() {
		var s model.Seller
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan seller: %w", err)
		}
		sellers = append(sellers, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sellers: %w", err)
	}

	return sellers, nil
}

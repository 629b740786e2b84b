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

const customerColumns = `id, seller_id, name, email, phone, address, password_hash, created_at`

type customerRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCustomerRepository creates a new PostgreSQL-backed allow-list repository.
func NewCustomerRepository(pool *pgxpool.Pool, logger zerolog.Logger) CustomerRepository {
	return &customerRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "customer").Logger(),
	}
}

func scanCustomer(row pgx.Row) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(&c.ID, &c.SellerID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Registered = len(c.PasswordHash) > 0
	return &c, nil
}

const insertCustomer = `
	INSERT INTO customers (id, seller_id, name, email, phone, address, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

func (r *customerRepository) Create(ctx context.Context, c *model.Customer) error {
	_, err := r.pool.Exec(ctx, insertCustomer, c.ID, c.SellerID, c.Name, c.Email, c.Phone, c.Address, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrCustomerExists
		}
		r.logger.Error().Err(err).Str("seller_id", c.SellerID.String()).Msg("failed to create customer")
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// CreateMany batch-inserts customers with ON CONFLICT DO NOTHING.
func (r *customerRepository) CreateMany(ctx context.Context, customers []model.Customer) (int, error) {
	if len(customers) == 0 {
		return 0, nil
	}

	query := insertCustomer + ` ON CONFLICT (seller_id, email) DO NOTHING`

	batch := &pgx.Batch{}
	for _, c := range customers {
		batch.Queue(query, c.ID, c.SellerID, c.Name, c.Email, c.Phone, c.Address, c.CreatedAt)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for i := 0; i < len(customers); i++ {
		tag, err := results.Exec()
		if err != nil {
			r.logger.Error().Err(err).Str("email", customers[i].Email).Msg("failed to import customer")
			return inserted, fmt.Errorf("failed to import customer: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	r.logger.Info().
		Int("read", len(customers)).
		Int("inserted", inserted).
		Msg("customers imported")

	return inserted, nil
}

func (r *customerRepository) getOne(ctx context.Context, query string, args ...any) (*model.Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query customer")
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}
	return c, nil
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
}

func (r *customerRepository) GetByEmail(ctx context.Context, sellerID uuid.UUID, email string) (*model.Customer, error) {
	return r.getOne(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE seller_id = $1 AND lower(email) = lower($2)`,
		sellerID, email,
	)
}

func (r *customerRepository) List(ctx context.Context, sellerID uuid.UUID) ([]model.Customer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE seller_id = $1 ORDER BY created_at, email`,
		sellerID,
	)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query customers")
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, nil
}

func (r *customerRepository) Delete(ctx context.Context, sellerID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1 AND seller_id = $2`, id, sellerID)
	if err != nil {
		r.logger.Error().Err(err).Str("customer_id", id.String()).Msg("failed to delete customer")
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCustomerNotFound
	}
	return nil
}

func (r *customerRepository) SetPassword(ctx context.Context, id uuid.UUID, hash []byte) error {
	tag, err := r.pool.Exec(ctx, `UPDATE customers SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		r.logger.Error().Err(err).Str("customer_id", id.String()).Msg("failed to set customer password")
		return fmt.Errorf("failed to set customer password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCustomerNotFound
	}
	return nil
}

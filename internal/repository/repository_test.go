package repository

import (
	"context"
	"testing"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer with the migrated schema.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.MigrateUp(connStr, zerolog.Nop()))

	pool, err := database.NewPoolFromURL(ctx, connStr, config.DatabaseConfig{}, zerolog.Nop())
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func seedSeller(t *testing.T, pool *pgxpool.Pool, name string) model.Seller {
	s := model.Seller{
		ID:           uuid.New(),
		Name:         name,
		Email:        name + "@shop.test",
		PasswordHash: []byte("hash"),
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, NewSellerRepository(pool, zerolog.Nop()).Create(context.Background(), &s))
	return s
}

func seedCustomer(t *testing.T, pool *pgxpool.Pool, sellerID uuid.UUID, email string) model.Customer {
	c := model.Customer{
		ID:        uuid.New(),
		SellerID:  sellerID,
		Name:      "Customer " + email,
		Email:     email,
		Phone:     "555-0100",
		Address:   model.Address{City: "Pune", Country: "India"},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, NewCustomerRepository(pool, zerolog.Nop()).Create(context.Background(), &c))
	return c
}

func seedProducts(t *testing.T, pool *pgxpool.Pool, products []model.Product) {
	repo := NewProductRepository(pool, zerolog.Nop())
	for i := range products {
		require.NoError(t, repo.Create(context.Background(), &products[i]))
	}
}

func ptr[T any](v T) *T {
	return &v
}

package repository

import (
	"context"
	"errors"

	"marketplace/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// Create inserts a new product. Returns model.ErrProductExists when the ID is taken.
	Create(ctx context.Context, p *model.Product) error

	// GetByID retrieves a single product by its ID. Returns nil, nil when absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// List retrieves a seller's products with pagination and an optional category.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// Update replaces the mutable fields of a seller's product.
	Update(ctx context.Context, p *model.Product) error

	// Delete removes a seller's product.
	Delete(ctx context.Context, sellerID uuid.UUID, id string) error

	// LockForUpdate loads products inside tx with a row lock, for stock changes.
	LockForUpdate(ctx context.Context, tx pgx.Tx, ids []string) ([]model.Product, error)

	// UpdateStock writes flat and per-variant stock of a locked product.
	UpdateStock(ctx context.Context, tx pgx.Tx, p *model.Product) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts an order and its line items within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// GetByID retrieves an order with its items and returned-item log.
	// Returns nil, nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// List retrieves orders matching the filter, newest first, with their items.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)

	// SaveItems atomically replaces the order's line items, appends the given
	// returned-item records and stores the new total.
	SaveItems(ctx context.Context, order *model.Order, returned []model.ReturnedItem) error

	// UpdateStatus stores the lifecycle, delivery and payment fields of an order.
	UpdateStatus(ctx context.Context, order *model.Order) error

	// MarkViewed sets the viewed-by-customer flag.
	MarkViewed(ctx context.Context, id uuid.UUID) error
}

// CartRepository defines the interface for cart data access operations.
type CartRepository interface {
	// Get retrieves a customer's cart; a customer without one gets an empty cart.
	Get(ctx context.Context, customerID uuid.UUID) (*model.Cart, error)

	// Save upserts the cart.
	Save(ctx context.Context, cart *model.Cart) error

	// Clear empties the cart within the provided transaction.
	Clear(ctx context.Context, tx pgx.Tx, customerID uuid.UUID) error
}

// CategoryRepository defines the interface for category data access operations.
type CategoryRepository interface {
	Create(ctx context.Context, c *model.Category) error
	List(ctx context.Context, sellerID uuid.UUID) ([]model.Category, error)
	Delete(ctx context.Context, sellerID, id uuid.UUID) error
}

// CustomerRepository defines the interface for the seller allow-list.
type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) error

	// CreateMany inserts customers, skipping emails already on the seller's
	// list, and returns how many rows were inserted.
	CreateMany(ctx context.Context, customers []model.Customer) (int, error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	GetByEmail(ctx context.Context, sellerID uuid.UUID, email string) (*model.Customer, error)
	List(ctx context.Context, sellerID uuid.UUID) ([]model.Customer, error)
	Delete(ctx context.Context, sellerID, id uuid.UUID) error
	SetPassword(ctx context.Context, id uuid.UUID, hash []byte) error
}

// SellerRepository defines the interface for seller accounts.
type SellerRepository interface {
	Create(ctx context.Context, s *model.Seller) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Seller, error)
	GetByEmail(ctx context.Context, email string) (*model.Seller, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Seller, error)
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

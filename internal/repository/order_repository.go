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

const orderColumns = `id, customer_id, seller_id, customer, total_amount, status, delivery_status,
	payment_status, accepted_at, cancelled_at, viewed_by_customer, created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order and its items within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.CustomerID, order.SellerID, order.Customer, order.TotalAmount,
		order.Status, order.DeliveryStatus, order.PaymentStatus, order.AcceptedAt, order.CancelledAt,
		order.ViewedByCustomer, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err := r.insertItems(ctx, tx, order.ID, order.Items); err != nil {
		return err
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Int("items", len(order.Items)).
		Msg("order created successfully")

	return nil
}

// insertItems batch-inserts line items, preserving their order via position.
func (r *orderRepository) insertItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []model.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, position, product_id, seller_id, quantity, price, discounted_price, variant)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(query, item.ID, orderID, i, item.ProductID, item.SellerID, item.Quantity,
			item.Price, item.DiscountedPrice, item.Variant)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", orderID.String()).
				Str("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

func (r *orderRepository) insertReturned(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, returned []model.ReturnedItem) error {
	if len(returned) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_returned_items (id, order_id, product_id, seller_id, quantity, returned_quantity,
			price, discounted_price, variant, returned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	batch := &pgx.Batch{}
	for _, ri := range returned {
		batch.Queue(query, ri.ID, orderID, ri.ProductID, ri.SellerID, ri.Quantity, ri.ReturnedQuantity,
			ri.Price, ri.DiscountedPrice, ri.Variant, ri.ReturnedAt)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(returned); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", orderID.String()).
				Str("product_id", returned[i].ProductID).
				Msg("failed to create returned item")
			return fmt.Errorf("failed to create returned item: %w", err)
		}
	}

	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.SellerID,
		&o.Customer,
		&o.TotalAmount,
		&o.Status,
		&o.DeliveryStatus,
		&o.PaymentStatus,
		&o.AcceptedAt,
		&o.CancelledAt,
		&o.ViewedByCustomer,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Items = []model.LineItem{}
	o.ReturnedItems = []model.ReturnedItem{}
	return &o, nil
}

// GetByID retrieves an order by its ID along with its items and returned log.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	byID := map[uuid.UUID]*model.Order{order.ID: order}
	if err := r.loadItems(ctx, byID); err != nil {
		return nil, err
	}
	if err := r.loadReturned(ctx, byID); err != nil {
		return nil, err
	}

	return order, nil
}

// List retrieves orders matching the filter, newest first.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::uuid IS NULL OR seller_id = $1)
		  AND ($2::uuid IS NULL OR customer_id = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC, id
		LIMIT $4 OFFSET $5
	`

	var sellerID, customerID *uuid.UUID
	if filter.SellerID != uuid.Nil {
		sellerID = &filter.SellerID
	}
	if filter.CustomerID != uuid.Nil {
		customerID = &filter.CustomerID
	}

	rows, err := r.pool.Query(ctx, query, sellerID, customerID, string(filter.Status), filter.Limit, filter.Offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	rows.Close()

	byID := make(map[uuid.UUID]*model.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	if err := r.loadItems(ctx, byID); err != nil {
		return nil, err
	}
	if err := r.loadReturned(ctx, byID); err != nil {
		return nil, err
	}

	result := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, *o)
	}
	return result, nil
}

func orderIDs(byID map[uuid.UUID]*model.Order) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	return ids
}

func (r *orderRepository) loadItems(ctx context.Context, byID map[uuid.UUID]*model.Order) error {
	if len(byID) == 0 {
		return nil
	}

	query := `
		SELECT order_id, id, product_id, seller_id, quantity, price, discounted_price, variant
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`

	rows, err := r.pool.Query(ctx, query, orderIDs(byID))
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order items")
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID uuid.UUID
		var item model.LineItem
		err := rows.Scan(&orderID, &item.ID, &item.ProductID, &item.SellerID, &item.Quantity,
			&item.Price, &item.DiscountedPrice, &item.Variant)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		o := byID[orderID]
		o.Items = append(o.Items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

func (r *orderRepository) loadReturned(ctx context.Context, byID map[uuid.UUID]*model.Order) error {
	if len(byID) == 0 {
		return nil
	}

	query := `
		SELECT order_id, id, product_id, seller_id, quantity, returned_quantity, price,
			discounted_price, variant, returned_at
		FROM order_returned_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, returned_at, id
	`

	rows, err := r.pool.Query(ctx, query, orderIDs(byID))
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query returned items")
		return fmt.Errorf("failed to query returned items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID uuid.UUID
		var ri model.ReturnedItem
		err := rows.Scan(&orderID, &ri.ID, &ri.ProductID, &ri.SellerID, &ri.Quantity, &ri.ReturnedQuantity,
			&ri.Price, &ri.DiscountedPrice, &ri.Variant, &ri.ReturnedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan returned item row")
			return fmt.Errorf("failed to scan returned item: %w", err)
		}
		o := byID[orderID]
		o.ReturnedItems = append(o.ReturnedItems, ri)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating returned item rows")
		return fmt.Errorf("error iterating returned items: %w", err)
	}

	return nil
}

// SaveItems replaces the order's items, appends returned records and stores the
// new total in a single transaction. Seller edits reset the viewed flag.
func (r *orderRepository) SaveItems(ctx context.Context, order *model.Order, returned []model.ReturnedItem) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET total_amount = $2, updated_at = $3, viewed_by_customer = FALSE
		WHERE id = $1
	`, order.ID, order.TotalAmount, order.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order total")
		return fmt.Errorf("failed to update order total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to clear order items")
		return fmt.Errorf("failed to clear order items: %w", err)
	}

	if err := r.insertItems(ctx, tx, order.ID, order.Items); err != nil {
		return err
	}

	if err := r.insertReturned(ctx, tx, order.ID, returned); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit order items")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	order.ViewedByCustomer = false
	order.ReturnedItems = append(order.ReturnedItems, returned...)

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Int("items", len(order.Items)).
		Int("returned", len(returned)).
		Msg("order items saved")

	return nil
}

// UpdateStatus stores the lifecycle, delivery and payment fields of an order.
func (r *orderRepository) UpdateStatus(ctx context.Context, order *model.Order) error {
	query := `
		UPDATE orders
		SET status = $2, delivery_status = $3, payment_status = $4, accepted_at = $5,
			cancelled_at = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, order.ID, order.Status, order.DeliveryStatus, order.PaymentStatus,
		order.AcceptedAt, order.CancelledAt, order.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// MarkViewed sets the viewed-by-customer flag.
func (r *orderRepository) MarkViewed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE orders SET viewed_by_customer = TRUE WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order viewed")
		return fmt.Errorf("failed to mark order viewed: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/pricing"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// taxLookupLimit bounds concurrent product lookups while repricing an order.
const taxLookupLimit = 8

// transitions lists the statuses each order status may move to.
var transitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:  {model.OrderStatusAccepted, model.OrderStatusCancelled},
	model.OrderStatusAccepted: {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped:  {model.OrderStatusDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to model.OrderStatus) bool {
	return slices.Contains(transitions[from], to)
}

// orderService implements OrderService.
type orderService struct {
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	cartRepo     repository.CartRepository
	customerRepo repository.CustomerRepository
	sellerRepo   repository.SellerRepository
	catalog      *Catalog
	now          func() time.Time
	logger       zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	customerRepo repository.CustomerRepository,
	sellerRepo repository.SellerRepository,
	catalog *Catalog,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		cartRepo:     cartRepo,
		customerRepo: customerRepo,
		sellerRepo:   sellerRepo,
		catalog:      catalog,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger.With().Str("service", "order").Logger(),
	}
}

// Checkout places a pending order for everything in the customer's cart.
// Stock is checked and decremented under row locks in the same transaction
// that creates the order and empties the cart.
func (s *orderService) Checkout(ctx context.Context, customerID, sellerID uuid.UUID) (*model.OrderResponse, error) {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if customer == nil || customer.SellerID != sellerID {
		return nil, model.ErrCustomerNotFound
	}

	cart, err := s.cartRepo.Get(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, model.ErrEmptyCart
	}

	productIDs := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		if item.Quantity <= 0 {
			return nil, model.ErrInvalidQuantity
		}
		productIDs = append(productIDs, item.ProductID)
	}
	slices.Sort(productIDs)
	productIDs = slices.Compact(productIDs)

	// Start transaction
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	locked, err := s.productRepo.LockForUpdate(ctx, tx, productIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to lock products")
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	products := make(map[string]*model.Product, len(locked))
	for i := range locked {
		products[locked[i].ID] = &locked[i]
	}

	now := s.now()
	order := &model.Order{
		ID:             uuid.New(),
		CustomerID:     customerID,
		SellerID:       sellerID,
		Customer:       customer.Snapshot(),
		Items:          make([]model.LineItem, 0, len(cart.Items)),
		ReturnedItems:  []model.ReturnedItem{},
		Status:         model.OrderStatusPending,
		DeliveryStatus: model.DeliveryStatusPending,
		PaymentStatus:  model.PaymentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	lines := make([]pricing.Line, 0, len(cart.Items))

	for _, item := range cart.Items {
		p, ok := products[item.ProductID]
		if !ok || p.SellerID != sellerID {
			err = model.ErrProductNotFound
			return nil, err
		}

		var o offer
		if o, err = resolveOffer(p, item.Variant); err != nil {
			return nil, err
		}
		if item.Quantity > o.Stock {
			s.logger.Warn().
				Str("product_id", p.ID).
				Int("requested", item.Quantity).
				Int("available", o.Stock).
				Msg("insufficient stock at checkout")
			err = model.ErrInsufficientStock
			return nil, err
		}

		takeStock(p, item, o)

		order.Items = append(order.Items, model.LineItem{
			ID:              uuid.New(),
			ProductID:       p.ID,
			SellerID:        p.SellerID,
			Quantity:        item.Quantity,
			Price:           o.Price,
			DiscountedPrice: o.DiscountedPrice,
			Variant:         o.Variant,
		})
		lines = append(lines, pricing.Line{
			Price:           o.Price,
			DiscountedPrice: o.DiscountedPrice,
			Quantity:        item.Quantity,
			TaxPercentage:   p.TaxPercentage,
		})
	}
	order.TotalAmount = pricing.Total(lines)

	for _, id := range productIDs {
		if err = s.productRepo.UpdateStock(ctx, tx, products[id]); err != nil {
			s.logger.Error().Err(err).Str("product_id", id).Msg("failed to update stock")
			return nil, fmt.Errorf("failed to update stock: %w", err)
		}
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.cartRepo.Clear(ctx, tx, customerID); err != nil {
		s.logger.Error().Err(err).Str("customer_id", customerID.String()).Msg("failed to clear cart")
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	// Commit transaction
	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	s.catalog.Invalidate(ctx, productIDs...)

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("customer_id", customerID.String()).
		Int("item_count", len(order.Items)).
		Float64("total", order.TotalAmount).
		Msg("order placed")

	return s.respond(ctx, order)
}

// takeStock removes item's quantity from p. Variant products keep the flat
// stock equal to the sum of their variants.
func takeStock(p *model.Product, item model.CartItem, o offer) {
	if o.Variant != nil {
		idx := p.FindVariant(item.Variant)
		p.Variants[idx].Stock -= item.Quantity
		total := 0
		for _, v := range p.Variants {
			total += v.Stock
		}
		p.Stock = total
	} else {
		p.Stock -= item.Quantity
	}

	if p.Stock == 0 {
		p.StockStatus = model.StockStatusOutOfStock
	}
}

func (s *orderService) ListForCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]model.OrderResponse, error) {
	limit, offset = normalizePage(limit, offset)
	return s.list(ctx, model.OrderFilter{CustomerID: customerID, Limit: limit, Offset: offset})
}

func (s *orderService) ListForSeller(ctx context.Context, sellerID uuid.UUID, status model.OrderStatus, limit, offset int) ([]model.OrderResponse, error) {
	limit, offset = normalizePage(limit, offset)
	return s.list(ctx, model.OrderFilter{SellerID: sellerID, Status: status, Limit: limit, Offset: offset})
}

func (s *orderService) list(ctx context.Context, filter model.OrderFilter) ([]model.OrderResponse, error) {
	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	s.logger.Debug().
		Int("count", len(orders)).
		Int("limit", filter.Limit).
		Int("offset", filter.Offset).
		Msg("retrieved orders")

	return s.respondAll(ctx, orders)
}

// load returns the order when match accepts it, or ErrOrderNotFound.
func (s *orderService) load(ctx context.Context, id uuid.UUID, match func(*model.Order) bool) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil || !match(order) {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) loadForSeller(ctx context.Context, sellerID, id uuid.UUID) (*model.Order, error) {
	return s.load(ctx, id, func(o *model.Order) bool { return o.SellerID == sellerID })
}

func (s *orderService) GetForCustomer(ctx context.Context, customerID, id uuid.UUID) (*model.OrderResponse, error) {
	order, err := s.load(ctx, id, func(o *model.Order) bool { return o.CustomerID == customerID })
	if err != nil {
		return nil, err
	}

	if !order.ViewedByCustomer {
		if err := s.orderRepo.MarkViewed(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to mark order viewed: %w", err)
		}
		order.ViewedByCustomer = true
	}

	return s.respond(ctx, order)
}

func (s *orderService) GetForSeller(ctx context.Context, sellerID, id uuid.UUID) (*model.OrderResponse, error) {
	order, err := s.loadForSeller(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, order)
}

// UpdateStatus moves the order along its lifecycle. Delivery status follows
// the order status and the accept/cancel timestamps are recorded.
func (s *orderService) UpdateStatus(ctx context.Context, sellerID, id uuid.UUID, status model.OrderStatus) (*model.OrderResponse, error) {
	order, err := s.loadForSeller(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(order.Status, status) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("from", string(order.Status)).
			Str("to", string(status)).
			Msg("rejected status transition")
		return nil, model.ErrInvalidTransition
	}

	now := s.now()
	order.Status = status
	order.UpdatedAt = now
	switch status {
	case model.OrderStatusAccepted:
		order.AcceptedAt = &now
	case model.OrderStatusCancelled:
		order.CancelledAt = &now
		order.DeliveryStatus = model.DeliveryStatusCancelled
	case model.OrderStatusShipped:
		order.DeliveryStatus = model.DeliveryStatusInTransit
	case model.OrderStatusDelivered:
		order.DeliveryStatus = model.DeliveryStatusDelivered
	}

	if err := s.orderRepo.UpdateStatus(ctx, order); err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info().Str("order_id", id.String()).Str("status", string(status)).Msg("order status updated")
	return s.respond(ctx, order)
}

func (s *orderService) UpdatePayment(ctx context.Context, sellerID, id uuid.UUID, status model.PaymentStatus) (*model.OrderResponse, error) {
	if !status.Valid() {
		return nil, model.ErrInvalidPayment
	}

	order, err := s.loadForSeller(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}

	order.PaymentStatus = status
	order.UpdatedAt = s.now()

	if err := s.orderRepo.UpdateStatus(ctx, order); err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	s.logger.Info().Str("order_id", id.String()).Str("payment_status", string(status)).Msg("payment status updated")
	return s.respond(ctx, order)
}

// UpdateItems reconciles the order's lines against items, logs the removed
// quantity as returned items, reprices the order and saves it atomically.
func (s *orderService) UpdateItems(ctx context.Context, sellerID, id uuid.UUID, items []model.OrderItemUpdate) (*model.OrderResponse, error) {
	if err := validateItemUpdates(items); err != nil {
		return nil, err
	}

	order, err := s.loadForSeller(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.Editable() {
		return nil, model.ErrOrderNotEditable
	}

	now := s.now()
	result, err := reconcile(order.Items, items, now)
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", id.String()).Msg("rejected order item update")
		return nil, err
	}

	rates := s.taxRates(ctx, result.Items)
	lines := make([]pricing.Line, len(result.Items))
	for i, li := range result.Items {
		lines[i] = pricing.Line{
			Price:           li.Price,
			DiscountedPrice: li.DiscountedPrice,
			Quantity:        li.Quantity,
			TaxPercentage:   rates[li.ProductID],
		}
	}

	order.Items = result.Items
	order.TotalAmount = pricing.Total(lines)
	order.UpdatedAt = now

	if err := s.orderRepo.SaveItems(ctx, order, result.Returned); err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to save order items")
		return nil, fmt.Errorf("failed to update order items: %w", err)
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Int("item_count", len(order.Items)).
		Int("returned_count", len(result.Returned)).
		Float64("total", order.TotalAmount).
		Msg("order items updated")

	return s.respond(ctx, order)
}

// taxRates looks up the current tax percentage of each product on the
// lines concurrently. A product that cannot be read counts as untaxed.
func (s *orderService) taxRates(ctx context.Context, items []model.LineItem) map[string]float64 {
	ids := make([]string, 0, len(items))
	for _, li := range items {
		ids = append(ids, li.ProductID)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	var mu sync.Mutex
	rates := make(map[string]float64, len(ids))

	var g errgroup.Group
	g.SetLimit(taxLookupLimit)
	for _, id := range ids {
		g.Go(func() error {
			rate := 0.0
			p, err := s.catalog.Get(ctx, id)
			switch {
			case err != nil:
				s.logger.Warn().Err(err).Str("product_id", id).Msg("tax lookup failed, using zero tax")
			case p == nil:
				s.logger.Warn().Str("product_id", id).Msg("product missing, using zero tax")
			default:
				rate = p.TaxPercentage
			}

			mu.Lock()
			rates[id] = rate
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return rates
}

func (s *orderService) respond(ctx context.Context, order *model.Order) (*model.OrderResponse, error) {
	out, err := s.respondAll(ctx, []model.Order{*order})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// respondAll populates product and seller summaries for orders with one
// query per table.
func (s *orderService) respondAll(ctx context.Context, orders []model.Order) ([]model.OrderResponse, error) {
	var productIDs []string
	var sellerIDs []uuid.UUID
	for _, o := range orders {
		sellerIDs = append(sellerIDs, o.SellerID)
		for _, li := range o.Items {
			productIDs = append(productIDs, li.ProductID)
			sellerIDs = append(sellerIDs, li.SellerID)
		}
		for _, ri := range o.ReturnedItems {
			productIDs = append(productIDs, ri.ProductID)
		}
	}
	slices.Sort(productIDs)
	productIDs = slices.Compact(productIDs)
	sellerIDs = uniqueIDs(sellerIDs)

	productSummaries := make(map[string]model.ProductSummary, len(productIDs))
	if len(productIDs) > 0 {
		products, err := s.productRepo.GetByIDs(ctx, productIDs)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to retrieve product details")
			return nil, fmt.Errorf("failed to retrieve product details: %w", err)
		}
		for i := range products {
			productSummaries[products[i].ID] = summarize(&products[i])
		}
	}

	sellerSummaries := make(map[uuid.UUID]model.SellerSummary, len(sellerIDs))
	if len(sellerIDs) > 0 {
		sellers, err := s.sellerRepo.GetByIDs(ctx, sellerIDs)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to retrieve seller details")
			return nil, fmt.Errorf("failed to retrieve seller details: %w", err)
		}
		for _, sl := range sellers {
			sellerSummaries[sl.ID] = model.SellerSummary{ID: sl.ID, Name: sl.Name}
		}
	}

	product := func(id string) model.ProductSummary {
		if p, ok := productSummaries[id]; ok {
			return p
		}
		return model.ProductSummary{ID: id, Images: []string{}}
	}
	seller := func(id uuid.UUID) model.SellerSummary {
		if sl, ok := sellerSummaries[id]; ok {
			return sl
		}
		return model.SellerSummary{ID: id}
	}

	out := make([]model.OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp := model.OrderResponse{
			ID:               o.ID,
			CustomerID:       o.CustomerID,
			Customer:         o.Customer,
			Seller:           seller(o.SellerID),
			Items:            make([]model.OrderItemView, 0, len(o.Items)),
			ReturnedItems:    make([]model.ReturnedItemView, 0, len(o.ReturnedItems)),
			TotalAmount:      o.TotalAmount,
			Status:           o.Status,
			DeliveryStatus:   o.DeliveryStatus,
			PaymentStatus:    o.PaymentStatus,
			AcceptedAt:       o.AcceptedAt,
			CancelledAt:      o.CancelledAt,
			ViewedByCustomer: o.ViewedByCustomer,
			CreatedAt:        o.CreatedAt,
			UpdatedAt:        o.UpdatedAt,
		}
		for _, li := range o.Items {
			resp.Items = append(resp.Items, model.OrderItemView{
				LineItem: li,
				Product:  product(li.ProductID),
				Seller:   seller(li.SellerID),
			})
		}
		for _, ri := range o.ReturnedItems {
			resp.ReturnedItems = append(resp.ReturnedItems, model.ReturnedItemView{
				ReturnedItem: ri,
				Product:      product(ri.ProductID),
			})
		}
		out = append(out, resp)
	}

	return out, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

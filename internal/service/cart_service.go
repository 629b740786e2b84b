package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/pricing"
	"marketplace/internal/repository"
	"marketplace/internal/variant"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// offer is what a product sells for a given variant selection.
type offer struct {
	Price           float64
	DiscountedPrice *float64
	Stock           int
	Variant         *model.LineVariant
}

// resolveOffer picks the variant of p matching c, or the flat fields when p
// has no variations.
func resolveOffer(p *model.Product, c variant.Combination) (offer, error) {
	if !p.HasVariations {
		if !c.IsEmpty() {
			return offer{}, model.ErrVariantNotFound
		}
		return offer{Price: p.Price, DiscountedPrice: p.DiscountedPrice, Stock: p.Stock}, nil
	}

	if c.IsEmpty() {
		return offer{}, model.ErrVariantRequired
	}
	idx := p.FindVariant(c)
	if idx < 0 {
		return offer{}, model.ErrVariantNotFound
	}

	v := p.Variants[idx]
	return offer{
		Price:           v.Price,
		DiscountedPrice: v.DiscountedPrice,
		Stock:           v.Stock,
		Variant: &model.LineVariant{
			Combination:     v.Combination,
			Price:           v.Price,
			DiscountedPrice: v.DiscountedPrice,
			Stock:           v.Stock,
		},
	}, nil
}

func summarize(p *model.Product) model.ProductSummary {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return model.ProductSummary{ID: p.ID, Name: p.Name, Images: images}
}

type cartService struct {
	repo    repository.CartRepository
	catalog *Catalog
	logger  zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, catalog *Catalog, logger zerolog.Logger) CartService {
	return &cartService{
		repo:    repo,
		catalog: catalog,
		logger:  logger.With().Str("service", "cart").Logger(),
	}
}

// product returns the seller's product or ErrProductNotFound.
func (s *cartService) product(ctx context.Context, sellerID uuid.UUID, id string) (*model.Product, error) {
	p, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.SellerID != sellerID {
		return nil, model.ErrProductNotFound
	}
	return p, nil
}

// checkLine verifies that qty of the selected variant can be bought.
func (s *cartService) checkLine(ctx context.Context, sellerID uuid.UUID, item model.CartItem) error {
	p, err := s.product(ctx, sellerID, item.ProductID)
	if err != nil {
		return err
	}
	o, err := resolveOffer(p, item.Variant)
	if err != nil {
		return err
	}
	if item.Quantity > o.Stock {
		return model.ErrInsufficientStock
	}
	return nil
}

func (s *cartService) load(ctx context.Context, customerID uuid.UUID) (*model.Cart, error) {
	cart, err := s.repo.Get(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return cart, nil
}

func (s *cartService) save(ctx context.Context, sellerID uuid.UUID, cart *model.Cart) (*model.CartResponse, error) {
	cart.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, cart); err != nil {
		s.logger.Error().Err(err).Str("customer_id", cart.CustomerID.String()).Msg("failed to save cart")
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return s.view(ctx, sellerID, cart), nil
}

// view prices the cart against current product data. Lines whose product or
// variant is gone, or whose quantity exceeds stock, are flagged unavailable
// and left out of the total.
func (s *cartService) view(ctx context.Context, sellerID uuid.UUID, cart *model.Cart) *model.CartResponse {
	resp := &model.CartResponse{
		CustomerID: cart.CustomerID,
		Items:      make([]model.CartLineView, 0, len(cart.Items)),
		UpdatedAt:  cart.UpdatedAt,
	}

	products := make(map[string]*model.Product)
	var lines []pricing.Line
	for _, item := range cart.Items {
		p, ok := products[item.ProductID]
		if !ok {
			var err error
			p, err = s.product(ctx, sellerID, item.ProductID)
			if err != nil {
				s.logger.Warn().Err(err).Str("product_id", item.ProductID).Msg("cart product unavailable")
				p = nil
			}
			products[item.ProductID] = p
		}

		line := model.CartLineView{
			CartItem: item,
			Product:  model.ProductSummary{ID: item.ProductID, Images: []string{}},
		}
		if p != nil {
			line.Product = summarize(p)
			if o, err := resolveOffer(p, item.Variant); err == nil && item.Quantity <= o.Stock {
				pl := pricing.Line{
					Price:           o.Price,
					DiscountedPrice: o.DiscountedPrice,
					Quantity:        item.Quantity,
					TaxPercentage:   p.TaxPercentage,
				}
				line.Available = true
				line.Pricing = pricing.Price(pl)
				lines = append(lines, pl)
			}
		}
		resp.Items = append(resp.Items, line)
	}

	resp.Total = pricing.Total(lines)
	return resp
}

func (s *cartService) Get(ctx context.Context, customerID, sellerID uuid.UUID) (*model.CartResponse, error) {
	cart, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, sellerID, cart), nil
}

// AddItem adds quantity to the matching line or appends a new one.
func (s *cartService) AddItem(ctx context.Context, customerID, sellerID uuid.UUID, req *model.CartItemRequest) (*model.CartResponse, error) {
	if req.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	cart, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}

	item := model.CartItem{ProductID: req.ProductID, Quantity: req.Quantity, Variant: req.Variant}
	idx := slices.IndexFunc(cart.Items, func(ci model.CartItem) bool { return ci.Key() == item.Key() })
	if idx >= 0 {
		item.Quantity += cart.Items[idx].Quantity
	}

	if err := s.checkLine(ctx, sellerID, item); err != nil {
		return nil, err
	}

	if idx >= 0 {
		cart.Items[idx] = item
	} else {
		cart.Items = append(cart.Items, item)
	}

	s.logger.Debug().Str("customer_id", customerID.String()).Str("product_id", item.ProductID).Int("quantity", item.Quantity).Msg("cart item added")
	return s.save(ctx, sellerID, cart)
}

func (s *cartService) SetItem(ctx context.Context, customerID, sellerID uuid.UUID, req *model.CartItemRequest) (*model.CartResponse, error) {
	if req.Quantity < 0 {
		return nil, model.ErrInvalidQuantity
	}
	if req.Quantity == 0 {
		return s.RemoveItem(ctx, customerID, sellerID, req)
	}

	cart, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}

	item := model.CartItem{ProductID: req.ProductID, Quantity: req.Quantity, Variant: req.Variant}
	if err := s.checkLine(ctx, sellerID, item); err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(cart.Items, func(ci model.CartItem) bool { return ci.Key() == item.Key() })
	if idx >= 0 {
		cart.Items[idx] = item
	} else {
		cart.Items = append(cart.Items, item)
	}

	return s.save(ctx, sellerID, cart)
}

func (s *cartService) RemoveItem(ctx context.Context, customerID, sellerID uuid.UUID, req *model.CartItemRequest) (*model.CartResponse, error) {
	cart, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}

	key := variant.LineKey(req.ProductID, req.Variant)
	cart.Items = slices.DeleteFunc(cart.Items, func(ci model.CartItem) bool { return ci.Key() == key })

	return s.save(ctx, sellerID, cart)
}

func (s *cartService) Clear(ctx context.Context, customerID, sellerID uuid.UUID) (*model.CartResponse, error) {
	cart := &model.Cart{CustomerID: customerID, Items: []model.CartItem{}}
	return s.save(ctx, sellerID, cart)
}

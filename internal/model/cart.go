package model

import (
	"time"

	"marketplace/internal/pricing"
	"marketplace/internal/variant"

	"github.com/google/uuid"
)

// CartItem is one line in a customer's cart.
type CartItem struct {
	ProductID string              `json:"product" db:"product_id"`
	Quantity  int                 `json:"quantity" db:"quantity"`
	Variant   variant.Combination `json:"variant" db:"variant"`
}

// Key returns the (product, variant) identity of the cart line.
func (ci CartItem) Key() string {
	return variant.LineKey(ci.ProductID, ci.Variant)
}

// Cart is a customer's shopping cart.
type Cart struct {
	CustomerID uuid.UUID  `json:"customerId" db:"customer_id"`
	Items      []CartItem `json:"items"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

// CartItemRequest is the payload for adding, updating or removing a cart line.
type CartItemRequest struct {
	ProductID string              `json:"product" validate:"required"`
	Quantity  int                 `json:"quantity" validate:"gte=0"`
	Variant   variant.Combination `json:"variant"`
}

// CartLineView is a priced cart line.
type CartLineView struct {
	CartItem
	Product   ProductSummary    `json:"productDetails"`
	Available bool              `json:"available"`
	Pricing   pricing.Breakdown `json:"pricing"`
}

// CartResponse is the priced view of a cart.
type CartResponse struct {
	CustomerID uuid.UUID      `json:"customerId"`
	Items      []CartLineView `json:"items"`
	Total      float64        `json:"total"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

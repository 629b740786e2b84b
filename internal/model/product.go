package model

import (
	"time"

	"marketplace/internal/variant"

	"github.com/google/uuid"
)

// Stock statuses.
const (
	StockStatusInStock    = "in_stock"
	StockStatusOutOfStock = "out_of_stock"
)

// Product represents an item in a seller's catalogue. When HasVariations is
// set, price and stock live on the variants instead of the flat fields.
type Product struct {
	ID              string      `json:"id" db:"id"`
	SellerID        uuid.UUID   `json:"sellerId" db:"seller_id"`
	Name            string      `json:"name" db:"name"`
	Description     string      `json:"description" db:"description"`
	Category        string      `json:"category" db:"category"`
	Price           float64     `json:"price" db:"price"`
	DiscountedPrice *float64    `json:"discountedPrice,omitempty" db:"discounted_price"`
	Stock           int         `json:"stock" db:"stock"`
	StockStatus     string      `json:"stockStatus" db:"stock_status"`
	TaxPercentage   float64     `json:"taxPercentage" db:"tax_percentage"`
	Images          []string    `json:"images" db:"images"`
	HasVariations   bool        `json:"hasVariations" db:"has_variations"`
	Attributes      []Attribute `json:"attributes,omitempty" db:"attributes"`
	Variants        []Variant   `json:"variants,omitempty" db:"variants"`
	CreatedAt       time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time   `json:"updatedAt" db:"updated_at"`
}

// Attribute declares one variation axis and its allowed options.
type Attribute struct {
	Name    string   `json:"name" validate:"required"`
	Options []string `json:"options" validate:"min=1,dive,required"`
}

// Variant is one purchasable combination of attribute options.
type Variant struct {
	Combination     variant.Combination `json:"combination"`
	Price           float64             `json:"price" validate:"gte=0"`
	DiscountedPrice *float64            `json:"discountedPrice,omitempty" validate:"omitempty,gte=0"`
	Stock           int                 `json:"stock" validate:"gte=0"`
	Images          []string            `json:"images,omitempty"`
}

// FindVariant returns the index of the variant matching the combination.
func (p *Product) FindVariant(c variant.Combination) int {
	for i := range p.Variants {
		if p.Variants[i].Combination.Equal(c) {
			return i
		}
	}
	return -1
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	SellerID uuid.UUID
	Category string
	Limit    int
	Offset   int
}

// ProductRequest is the create/update payload for products.
type ProductRequest struct {
	ID              string      `json:"id" validate:"required,max=64"`
	Name            string      `json:"name" validate:"required,max=255"`
	Description     string      `json:"description" validate:"max=5000"`
	Category        string      `json:"category" validate:"max=100"`
	Price           float64     `json:"price" validate:"gte=0"`
	DiscountedPrice *float64    `json:"discountedPrice,omitempty" validate:"omitempty,gte=0"`
	Stock           int         `json:"stock" validate:"gte=0"`
	StockStatus     string      `json:"stockStatus" validate:"omitempty,oneof=in_stock out_of_stock"`
	TaxPercentage   float64     `json:"taxPercentage" validate:"gte=0,lte=100"`
	HasVariations   bool        `json:"hasVariations"`
	Attributes      []Attribute `json:"attributes" validate:"dive"`
	Variants        []Variant   `json:"variants" validate:"dive"`
}

// ProductSummary is the populated product reference embedded in orders and carts.
type ProductSummary struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Images []string `json:"images"`
}

// SellerSummary is the populated seller reference embedded in orders.
type SellerSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProductImageUpload describes an uploaded image destined for a product.
type ProductImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	// Variant, when non-empty, attaches the image to that variant.
	Variant variant.Combination
}

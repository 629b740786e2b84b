package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"marketplace/internal/variant"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order lifecycle.
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
)

// DeliveryStatus tracks shipment progress.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusCancelled DeliveryStatus = "cancelled"
)

// PaymentStatus tracks payment collection.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Valid reports whether the payment status is known.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// Editable reports whether line items may still be changed.
func (s OrderStatus) Editable() bool {
	return s == OrderStatusPending || s == OrderStatusAccepted
}

// Address is a postal address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// CustomerSnapshot is the customer's contact data copied onto the order at
// placement time.
type CustomerSnapshot struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	Address Address `json:"address"`
}

// Order represents a customer order.
type Order struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	CustomerID       uuid.UUID        `json:"customerId" db:"customer_id"`
	SellerID         uuid.UUID        `json:"sellerId" db:"seller_id"`
	Customer         CustomerSnapshot `json:"customer" db:"customer"`
	Items            []LineItem       `json:"items"`
	ReturnedItems    []ReturnedItem   `json:"returnedItems"`
	TotalAmount      float64          `json:"totalAmount" db:"total_amount"`
	Status           OrderStatus      `json:"status" db:"status"`
	DeliveryStatus   DeliveryStatus   `json:"deliveryStatus" db:"delivery_status"`
	PaymentStatus    PaymentStatus    `json:"paymentStatus" db:"payment_status"`
	AcceptedAt       *time.Time       `json:"acceptedAt,omitempty" db:"accepted_at"`
	CancelledAt      *time.Time       `json:"cancelledAt,omitempty" db:"cancelled_at"`
	ViewedByCustomer bool             `json:"viewedByCustomer" db:"viewed_by_customer"`
	CreatedAt        time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time        `json:"updatedAt" db:"updated_at"`
}

// LineVariant is the variant selection and its price/stock at order time.
type LineVariant struct {
	Combination     variant.Combination `json:"combination"`
	Price           float64             `json:"price"`
	DiscountedPrice *float64            `json:"discountedPrice,omitempty"`
	Stock           int                 `json:"stock"`
}

// LineItem represents a line item in an order. Price and DiscountedPrice are
// a snapshot taken when the order was placed, never the live product price.
type LineItem struct {
	ID              uuid.UUID    `json:"id" db:"id"`
	ProductID       string       `json:"product" db:"product_id"`
	SellerID        uuid.UUID    `json:"seller" db:"seller_id"`
	Quantity        int          `json:"quantity" db:"quantity"`
	Price           float64      `json:"price" db:"price"`
	DiscountedPrice *float64     `json:"discountedPrice,omitempty" db:"discounted_price"`
	Variant         *LineVariant `json:"variant,omitempty" db:"variant"`
}

// Combination returns the line's variant combination, empty when none.
func (li LineItem) Combination() variant.Combination {
	if li.Variant == nil {
		return variant.Combination{}
	}
	return li.Variant.Combination
}

// Key returns the (product, variant) identity of the line.
func (li LineItem) Key() string {
	return variant.LineKey(li.ProductID, li.Combination())
}

// ReturnedItem is an append-only audit record of quantity removed from an
// order after it was placed.
type ReturnedItem struct {
	ID               uuid.UUID    `json:"id" db:"id"`
	ProductID        string       `json:"product" db:"product_id"`
	SellerID         uuid.UUID    `json:"seller" db:"seller_id"`
	Quantity         int          `json:"quantity" db:"quantity"`
	ReturnedQuantity int          `json:"returnedQuantity" db:"returned_quantity"`
	Price            float64      `json:"price" db:"price"`
	DiscountedPrice  *float64     `json:"discountedPrice,omitempty" db:"discounted_price"`
	Variant          *LineVariant `json:"variant,omitempty" db:"variant"`
	ReturnedAt       time.Time    `json:"returnedAt" db:"returned_at"`
}

// OrderItemUpdate is one entry of an order item edit request.
type OrderItemUpdate struct {
	ProductID string              `json:"product" validate:"required"`
	Quantity  int                 `json:"quantity" validate:"gte=0"`
	Variant   variant.Combination `json:"variant"`
}

// UnmarshalJSON accepts the variant either as an attribute map or in the
// {combination, price, stock} shape order lines are returned in.
func (u *OrderItemUpdate) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProductID string          `json:"product"`
		Quantity  int             `json:"quantity"`
		Variant   json.RawMessage `json:"variant"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c, err := decodeLineVariant(raw.Variant)
	if err != nil {
		return err
	}
	*u = OrderItemUpdate{ProductID: raw.ProductID, Quantity: raw.Quantity, Variant: c}
	return nil
}

func decodeLineVariant(data json.RawMessage) (variant.Combination, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return variant.Combination{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return variant.Combination{}, fmt.Errorf("variant must be an object: %w", err)
	}
	if inner, ok := fields["combination"]; ok && bytes.HasPrefix(bytes.TrimSpace(inner), []byte("{")) {
		data = inner
	}

	var c variant.Combination
	if err := json.Unmarshal(data, &c); err != nil {
		return variant.Combination{}, err
	}
	return c, nil
}

// Key returns the (product, variant) identity of the requested line.
func (u OrderItemUpdate) Key() string {
	return variant.LineKey(u.ProductID, u.Variant)
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	SellerID   uuid.UUID
	CustomerID uuid.UUID
	Status     OrderStatus
	Limit      int
	Offset     int
}

// OrderItemView is a line item with its populated product and seller.
type OrderItemView struct {
	LineItem
	Product ProductSummary `json:"productDetails"`
	Seller  SellerSummary  `json:"sellerDetails"`
}

// ReturnedItemView is a returned record with its populated product.
type ReturnedItemView struct {
	ReturnedItem
	Product ProductSummary `json:"productDetails"`
}

// OrderResponse represents the response payload for an order.
type OrderResponse struct {
	ID               uuid.UUID          `json:"id"`
	CustomerID       uuid.UUID          `json:"customerId"`
	Customer         CustomerSnapshot   `json:"customer"`
	Seller           SellerSummary      `json:"seller"`
	Items            []OrderItemView    `json:"items"`
	ReturnedItems    []ReturnedItemView `json:"returnedItems"`
	TotalAmount      float64            `json:"totalAmount"`
	Status           OrderStatus        `json:"status"`
	DeliveryStatus   DeliveryStatus     `json:"deliveryStatus"`
	PaymentStatus    PaymentStatus      `json:"paymentStatus"`
	AcceptedAt       *time.Time         `json:"acceptedAt,omitempty"`
	CancelledAt      *time.Time         `json:"cancelledAt,omitempty"`
	ViewedByCustomer bool               `json:"viewedByCustomer"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

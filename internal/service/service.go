package service

import (
	"context"
	"io"

	"marketplace/internal/model"

	"github.com/google/uuid"
)

// AuthService handles seller and customer sign-up and login.
type AuthService interface {
	RegisterSeller(ctx context.Context, req *model.SellerRegisterRequest) (*model.TokenResponse, error)
	LoginSeller(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error)

	// RegisterCustomer sets a password for an allow-listed customer.
	RegisterCustomer(ctx context.Context, req *model.CustomerAuthRequest) (*model.TokenResponse, error)
	LoginCustomer(ctx context.Context, req *model.CustomerAuthRequest) (*model.TokenResponse, error)
}

// CategoryService manages a seller's categories.
type CategoryService interface {
	Create(ctx context.Context, sellerID uuid.UUID, req *model.CategoryRequest) (*model.Category, error)
	List(ctx context.Context, sellerID uuid.UUID) ([]model.Category, error)
	Delete(ctx context.Context, sellerID, id uuid.UUID) error
}

// ProductService defines operations for product management.
type ProductService interface {
	Create(ctx context.Context, sellerID uuid.UUID, req *model.ProductRequest) (*model.Product, error)
	Update(ctx context.Context, sellerID uuid.UUID, req *model.ProductRequest) (*model.Product, error)
	Delete(ctx context.Context, sellerID uuid.UUID, id string) error

	// Get retrieves a product of the given seller.
	Get(ctx context.Context, sellerID uuid.UUID, id string) (*model.Product, error)

	// List retrieves a seller's products with pagination.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// AddImage stores an image and attaches its URL to the product or one of its variants.
	AddImage(ctx context.Context, sellerID uuid.UUID, id string, r io.Reader, in model.ProductImageUpload) (*model.Product, error)

	// RemoveImage detaches an image URL from the product and its variants and deletes the object.
	RemoveImage(ctx context.Context, sellerID uuid.UUID, id, url string) (*model.Product, error)
}

// CustomerService manages a seller's customer allow-list.
type CustomerService interface {
	Add(ctx context.Context, sellerID uuid.UUID, req *model.CustomerRequest) (*model.Customer, error)
	List(ctx context.Context, sellerID uuid.UUID) ([]model.Customer, error)
	Remove(ctx context.Context, sellerID, id uuid.UUID) error
	Import(ctx context.Context, sellerID uuid.UUID, paths []string) (*model.ImportResult, error)
}

// CartService manages a customer's cart.
type CartService interface {
	Get(ctx context.Context, customerID, sellerID uuid.UUID) (*model.CartResponse, error)
	AddItem(ctx context.Context, customerID, sellerID uuid.UUID, req *model.CartItemRequest) (*model.CartResponse, error)

	// SetItem sets a line's quantity; zero removes the line.
	SetItem(ctx context.Context, customerID, sellerID uuid.UUID, req *model.CartItemRequest) (*model.CartResponse, error)
	RemoveItem(ctx context.Context, customerID, sellerID uuid.UUID, req *model.CartItemRequest) (*model.CartResponse, error)
	Clear(ctx context.Context, customerID, sellerID uuid.UUID) (*model.CartResponse, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// Checkout turns the customer's cart into a pending order.
	Checkout(ctx context.Context, customerID, sellerID uuid.UUID) (*model.OrderResponse, error)

	ListForCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]model.OrderResponse, error)

	// GetForCustomer returns the customer's order and marks it viewed.
	GetForCustomer(ctx context.Context, customerID, id uuid.UUID) (*model.OrderResponse, error)

	ListForSeller(ctx context.Context, sellerID uuid.UUID, status model.OrderStatus, limit, offset int) ([]model.OrderResponse, error)
	GetForSeller(ctx context.Context, sellerID, id uuid.UUID) (*model.OrderResponse, error)

	UpdateStatus(ctx context.Context, sellerID, id uuid.UUID, status model.OrderStatus) (*model.OrderResponse, error)
	UpdatePayment(ctx context.Context, sellerID, id uuid.UUID, status model.PaymentStatus) (*model.OrderResponse, error)

	// UpdateItems reconciles the order's lines against the requested list.
	// Quantities can only shrink; removed quantity is logged as returned items.
	UpdateItems(ctx context.Context, sellerID, id uuid.UUID, items []model.OrderItemUpdate) (*model.OrderResponse, error)
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

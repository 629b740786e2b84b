package handler

import (
	"context"
	"io"
	"net/http"

	"marketplace/internal/auth"
	"marketplace/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) response(args mock.Arguments) (*model.OrderResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderResponse), args.Error(1)
}

func (m *MockOrderService) Checkout(ctx context.Context, customerID, sellerID uuid.UUID) (*model.OrderResponse, error) {
	return m.response(m.Called(ctx, customerID, sellerID))
}

func (m *MockOrderService) ListForCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]model.OrderResponse, error) {
	args := m.Called(ctx, customerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderResponse), args.Error(1)
}

func (m *MockOrderService) GetForCustomer(ctx context.Context, customerID, id uuid.UUID) (*model.OrderResponse, error) {
	return m.response(m.Called(ctx, customerID, id))
}

func (m *MockOrderService) ListForSeller(ctx context.Context, sellerID uuid.UUID, status model.OrderStatus, limit, offset int) ([]model.OrderResponse, error) {
	args := m.Called(ctx, sellerID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderResponse), args.Error(1)
}

func (m *MockOrderService) GetForSeller(ctx context.Context, sellerID, id uuid.UUID) (*model.OrderResponse, error) {
	return m.response(m.Called(ctx, sellerID, id))
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, sellerID, id uuid.UUID, status model.OrderStatus) (*model.OrderResponse, error) {
	return m.response(m.Called(ctx, sellerID, id, status))
}

func (m *MockOrderService) UpdatePayment(ctx context.Context, sellerID, id uuid.UUID, status model.PaymentStatus) (*model.OrderResponse, error) {
	return m.response(m.Called(ctx, sellerID, id, status))
}

func (m *MockOrderService) UpdateItems(ctx context.Context, sellerID, id uuid.UUID, items []model.OrderItemUpdate) (*model.OrderResponse, error) {
	return m.response(m.Called(ctx, sellerID, id, items))
}

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) product(args mock.Arguments) (*model.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, sellerID uuid.UUID, req *model.ProductRequest) (*model.Product, error) {
	return m.product(m.Called(ctx, sellerID, req))
}

func (m *MockProductService) Update(ctx context.Context, sellerID uuid.UUID, req *model.ProductRequest) (*model.Product, error) {
	return m.product(m.Called(ctx, sellerID, req))
}

func (m *MockProductService) Delete(ctx context.Context, sellerID uuid.UUID, id string) error {
	return m.Called(ctx, sellerID, id).Error(0)
}

func (m *MockProductService) Get(ctx context.Context, sellerID uuid.UUID, id string) (*model.Product, error) {
	return m.product(m.Called(ctx, sellerID, id))
}

func (m *MockProductService) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) AddImage(ctx context.Context, sellerID uuid.UUID, id string, r io.Reader, in model.ProductImageUpload) (*model.Product, error) {
	return m.product(m.Called(ctx, sellerID, id, in))
}

func (m *MockProductService) RemoveImage(ctx context.Context, sellerID uuid.UUID, id, url string) (*model.Product, error) {
	return m.product(m.Called(ctx, sellerID, id, url))
}

// MockAuthService is a mock implementation of AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) token(args mock.Arguments) (*model.TokenResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenResponse), args.Error(1)
}

func (m *MockAuthService) RegisterSeller(ctx context.Context, req *model.SellerRegisterRequest) (*model.TokenResponse, error) {
	return m.token(m.Called(ctx, req))
}

func (m *MockAuthService) LoginSeller(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	return m.token(m.Called(ctx, req))
}

func (m *MockAuthService) RegisterCustomer(ctx context.Context, req *model.CustomerAuthRequest) (*model.TokenResponse, error) {
	return m.token(m.Called(ctx, req))
}

func (m *MockAuthService) LoginCustomer(ctx context.Context, req *model.CustomerAuthRequest) (*model.TokenResponse, error) {
	return m.token(m.Called(ctx, req))
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) cart(args mock.Arguments) (*model.CartResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartResponse), args.Error(1)
}

func (m *MockCartService) Get(ctx context.Context, customerID, sellerID uuid.UUID) (*model.CartResponse, error) {
	return m.cart(m.Called(ctx, customerID, sellerID))
}

func (m *MockCartService) AddItem(ctx context.Context, customerID, sellerID uuid.UUID, req *model.CartItemRequest) (*model.CartResponse, error) {
	return m.cart(m.Called(ctx, customerID, sellerID, req))
}

func (m *MockCartService) SetItem(ctx context.Context, customerID, sellerID uuid.UUID, req *model.CartItemRequest) (*model.CartResponse, error) {
	return m.cart(m.Called(ctx, customerID, sellerID, req))
}

func (m *MockCartService) RemoveItem(ctx context.Context, customerID, sellerID uuid.UUID, req *model.CartItemRequest) (*model.CartResponse, error) {
	return m.cart(m.Called(ctx, customerID, sellerID, req))
}

func (m *MockCartService) Clear(ctx context.Context, customerID, sellerID uuid.UUID) (*model.CartResponse, error) {
	return m.cart(m.Called(ctx, customerID, sellerID))
}

// MockCustomerService is a mock implementation of CustomerService.
type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Add(ctx context.Context, sellerID uuid.UUID, req *model.CustomerRequest) (*model.Customer, error) {
	args := m.Called(ctx, sellerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerService) List(ctx context.Context, sellerID uuid.UUID) ([]model.Customer, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Customer), args.Error(1)
}

func (m *MockCustomerService) Remove(ctx context.Context, sellerID, id uuid.UUID) error {
	return m.Called(ctx, sellerID, id).Error(0)
}

func (m *MockCustomerService) Import(ctx context.Context, sellerID uuid.UUID, paths []string) (*model.ImportResult, error) {
	args := m.Called(ctx, sellerID, paths)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportResult), args.Error(1)
}

var (
	sellerPrincipal = auth.Principal{
		ID:       uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		Role:     model.RoleSeller,
		SellerID: uuid.MustParse("00000000-0000-0000-0000-000000000001"),
	}
	customerPrincipal = auth.Principal{
		ID:       uuid.MustParse("00000000-0000-0000-0000-0000000000c1"),
		Role:     model.RoleCustomer,
		SellerID: uuid.MustParse("00000000-0000-0000-0000-000000000001"),
	}
)

// withRoute attaches the principal and chi URL parameters to req.
func withRoute(req *http.Request, p auth.Principal, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = auth.WithPrincipal(ctx, p)
	return req.WithContext(ctx)
}

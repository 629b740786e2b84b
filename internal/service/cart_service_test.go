package service

import (
	"context"
	"testing"

	"marketplace/internal/model"
	"marketplace/internal/variant"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCartService(t *testing.T) (CartService, *MockCartRepository, *MockProductRepository) {
	t.Helper()

	carts := new(MockCartRepository)
	products := new(MockProductRepository)
	logger := zerolog.Nop()
	svc := NewCartService(carts, NewCatalog(products, nil, logger), logger)

	t.Cleanup(func() {
		carts.AssertExpectations(t)
		products.AssertExpectations(t)
	})
	return svc, carts, products
}

func cartProducts() (*model.Product, *model.Product) {
	flat := &model.Product{
		ID: "P001", SellerID: testSeller, Name: "Phone", Price: 100, DiscountedPrice: ptr(80.0),
		Stock: 5, TaxPercentage: 18,
	}
	sized := &model.Product{
		ID: "P004", SellerID: testSeller, Name: "Tee", HasVariations: true, Stock: 3,
		Variants: []model.Variant{
			{Combination: small, Price: 50, Stock: 1},
			{Combination: large, Price: 60, Stock: 2},
		},
	}
	return flat, sized
}

func savedCart(carts *MockCartRepository) *model.Cart {
	for _, c := range carts.Calls {
		if c.Method == "Save" {
			return c.Arguments.Get(1).(*model.Cart)
		}
	}
	return nil
}

func TestCartService_AddItem_MergesByNormalizedKey(t *testing.T) {
	ctx := context.Background()
	svc, carts, products := newCartService(t)
	_, sized := cartProducts()

	cart := &model.Cart{CustomerID: testCustomer, Items: []model.CartItem{
		{ProductID: "P004", Quantity: 1, Variant: variant.FromMap(map[string]string{"Size": "L"})},
	}}
	carts.On("Get", ctx, testCustomer).Return(cart, nil)
	carts.On("Save", ctx, cart).Return(nil)
	products.On("GetByID", mock.Anything, "P004").Return(sized, nil)

	resp, err := svc.AddItem(ctx, testCustomer, testSeller, &model.CartItemRequest{
		ProductID: "P004", Quantity: 1, Variant: large,
	})

	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)
	assert.True(t, resp.Items[0].Available)
	assert.Equal(t, 120.0, resp.Total)
	assert.Len(t, savedCart(carts).Items, 1)
}

func TestCartService_AddItem_Rejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		req     model.CartItemRequest
		wantErr error
	}{
		{name: "Zero quantity", req: model.CartItemRequest{ProductID: "P001", Quantity: 0}, wantErr: model.ErrInvalidQuantity},
		{name: "Over stock", req: model.CartItemRequest{ProductID: "P001", Quantity: 6}, wantErr: model.ErrInsufficientStock},
		{name: "Variant on flat product", req: model.CartItemRequest{ProductID: "P001", Quantity: 1, Variant: small}, wantErr: model.ErrVariantNotFound},
		{name: "Variant missing", req: model.CartItemRequest{ProductID: "P004", Quantity: 1}, wantErr: model.ErrVariantRequired},
		{
			name:    "Unknown variant",
			req:     model.CartItemRequest{ProductID: "P004", Quantity: 1, Variant: variant.FromMap(map[string]string{"Size": "XL"})},
			wantErr: model.ErrVariantNotFound,
		},
		{name: "Variant over stock", req: model.CartItemRequest{ProductID: "P004", Quantity: 2, Variant: small}, wantErr: model.ErrInsufficientStock},
		{name: "Unknown product", req: model.CartItemRequest{ProductID: "P999", Quantity: 1}, wantErr: model.ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, carts, products := newCartService(t)
			flat, sized := cartProducts()

			carts.On("Get", ctx, testCustomer).Return(&model.Cart{CustomerID: testCustomer, Items: []model.CartItem{}}, nil).Maybe()
			products.On("GetByID", mock.Anything, "P001").Return(flat, nil).Maybe()
			products.On("GetByID", mock.Anything, "P004").Return(sized, nil).Maybe()
			products.On("GetByID", mock.Anything, "P999").Return(nil, nil).Maybe()

			_, err := svc.AddItem(ctx, testCustomer, testSeller, &tt.req)

			require.ErrorIs(t, err, tt.wantErr)
			carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestCartService_AddItem_OtherSellersProduct(t *testing.T) {
	ctx := context.Background()
	svc, carts, products := newCartService(t)
	flat, _ := cartProducts()
	flat.SellerID = uuid.New()

	carts.On("Get", ctx, testCustomer).Return(&model.Cart{CustomerID: testCustomer, Items: []model.CartItem{}}, nil)
	products.On("GetByID", mock.Anything, "P001").Return(flat, nil)

	_, err := svc.AddItem(ctx, testCustomer, testSeller, &model.CartItemRequest{ProductID: "P001", Quantity: 1})

	require.ErrorIs(t, err, model.ErrProductNotFound)
}

func TestCartService_SetItem(t *testing.T) {
	ctx := context.Background()
	flat, sized := cartProducts()

	t.Run("Replaces quantity", func(t *testing.T) {
		svc, carts, products := newCartService(t)
		cart := &model.Cart{CustomerID: testCustomer, Items: []model.CartItem{{ProductID: "P001", Quantity: 4}}}
		carts.On("Get", ctx, testCustomer).Return(cart, nil)
		carts.On("Save", ctx, cart).Return(nil)
		products.On("GetByID", mock.Anything, "P001").Return(flat, nil)

		resp, err := svc.SetItem(ctx, testCustomer, testSeller, &model.CartItemRequest{ProductID: "P001", Quantity: 2})

		require.NoError(t, err)
		assert.Equal(t, 2, resp.Items[0].Quantity)
		assert.Equal(t, 188.80, resp.Total)
		assert.Equal(t, 80.0, resp.Items[0].Pricing.UnitPrice)
		assert.Equal(t, 28.80, resp.Items[0].Pricing.Tax)
	})

	t.Run("Zero removes the line", func(t *testing.T) {
		svc, carts, products := newCartService(t)
		cart := &model.Cart{CustomerID: testCustomer, Items: []model.CartItem{
			{ProductID: "P001", Quantity: 1},
			{ProductID: "P004", Quantity: 1, Variant: small},
		}}
		carts.On("Get", ctx, testCustomer).Return(cart, nil)
		carts.On("Save", ctx, cart).Return(nil)
		products.On("GetByID", mock.Anything, "P004").Return(sized, nil)

		resp, err := svc.SetItem(ctx, testCustomer, testSeller, &model.CartItemRequest{ProductID: "P001", Quantity: 0})

		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "P004", resp.Items[0].ProductID)
		assert.Equal(t, 50.0, resp.Total)
	})
}

func TestCartService_Get_FlagsUnavailableLines(t *testing.T) {
	ctx := context.Background()
	svc, carts, products := newCartService(t)
	flat, sized := cartProducts()

	cart := &model.Cart{CustomerID: testCustomer, Items: []model.CartItem{
		{ProductID: "P001", Quantity: 1},
		{ProductID: "P004", Quantity: 5, Variant: large},
		{ProductID: "GONE", Quantity: 1},
	}}
	carts.On("Get", ctx, testCustomer).Return(cart, nil)
	products.On("GetByID", mock.Anything, "P001").Return(flat, nil)
	products.On("GetByID", mock.Anything, "P004").Return(sized, nil)
	products.On("GetByID", mock.Anything, "GONE").Return(nil, nil)

	resp, err := svc.Get(ctx, testCustomer, testSeller)

	require.NoError(t, err)
	require.Len(t, resp.Items, 3)
	assert.True(t, resp.Items[0].Available)
	assert.False(t, resp.Items[1].Available)
	assert.False(t, resp.Items[2].Available)
	assert.Equal(t, "Tee", resp.Items[1].Product.Name)
	assert.Equal(t, 94.40, resp.Total)
}

func TestCartService_Clear(t *testing.T) {
	ctx := context.Background()
	svc, carts, _ := newCartService(t)
	carts.On("Save", ctx, mock.AnythingOfType("*model.Cart")).Return(nil)

	resp, err := svc.Clear(ctx, testCustomer, testSeller)

	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Zero(t, resp.Total)
	assert.Empty(t, savedCart(carts).Items)
}

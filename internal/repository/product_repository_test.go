package repository

import (
	"context"
	"testing"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/variant"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProducts(sellerID uuid.UUID) []model.Product {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return []model.Product{
		{ID: "P001", SellerID: sellerID, Name: "Product A", Price: 10, Category: "Cat1", Stock: 5, StockStatus: model.StockStatusInStock, TaxPercentage: 5, CreatedAt: now, UpdatedAt: now},
		{ID: "P002", SellerID: sellerID, Name: "Product B", Price: 20, DiscountedPrice: ptr(15.5), Category: "Cat2", Stock: 1, StockStatus: model.StockStatusInStock, TaxPercentage: 18, CreatedAt: now.Add(time.Second), UpdatedAt: now},
		{ID: "P003", SellerID: sellerID, Name: "Product C", Price: 30, Category: "Cat1", StockStatus: model.StockStatusOutOfStock, CreatedAt: now.Add(2 * time.Second), UpdatedAt: now},
		{
			ID: "P004", SellerID: sellerID, Name: "Shirt", Category: "Cat3", StockStatus: model.StockStatusInStock,
			TaxPercentage: 12, HasVariations: true, CreatedAt: now.Add(3 * time.Second), UpdatedAt: now,
			Attributes: []model.Attribute{{Name: "size", Options: []string{"S", "M"}}},
			Variants: []model.Variant{
				{Combination: variant.FromMap(map[string]string{"size": "S"}), Price: 25, Stock: 3},
				{Combination: variant.FromMap(map[string]string{"size": "M"}), Price: 27, DiscountedPrice: ptr(22.0), Stock: 0},
			},
		},
	}
}

func TestProductRepository_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seller := seedSeller(t, pool, "alpha")
	other := seedSeller(t, pool, "beta")
	seedProducts(t, pool, sampleProducts(seller.ID))
	seedProducts(t, pool, []model.Product{{ID: "X001", SellerID: other.ID, Name: "Other", Price: 1, StockStatus: model.StockStatusInStock}})

	repo := NewProductRepository(pool, zerolog.Nop())

	tests := []struct {
		name     string
		filter   model.ProductFilter
		expected []string
	}{
		{
			name:     "All seller products newest first",
			filter:   model.ProductFilter{SellerID: seller.ID, Limit: 10},
			expected: []string{"P004", "P003", "P002", "P001"},
		},
		{
			name:     "Pagination",
			filter:   model.ProductFilter{SellerID: seller.ID, Limit: 2, Offset: 1},
			expected: []string{"P003", "P002"},
		},
		{
			name:     "Category filter",
			filter:   model.ProductFilter{SellerID: seller.ID, Category: "Cat1", Limit: 10},
			expected: []string{"P003", "P001"},
		},
		{
			name:     "Offset beyond total",
			filter:   model.ProductFilter{SellerID: seller.ID, Limit: 10, Offset: 10},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := repo.List(context.Background(), tt.filter)
			require.NoError(t, err)

			ids := []string{}
			for _, p := range products {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestProductRepository_GetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seller := seedSeller(t, pool, "alpha")
	seedProducts(t, pool, sampleProducts(seller.ID))
	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	t.Run("Flat product with discount", func(t *testing.T) {
		p, err := repo.GetByID(ctx, "P002")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, 20.0, p.Price)
		require.NotNil(t, p.DiscountedPrice)
		assert.Equal(t, 15.5, *p.DiscountedPrice)
		assert.Equal(t, 18.0, p.TaxPercentage)
		assert.Equal(t, []string{}, p.Images)
	})

	t.Run("Product with variants", func(t *testing.T) {
		p, err := repo.GetByID(ctx, "P004")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.True(t, p.HasVariations)
		require.Len(t, p.Variants, 2)
		assert.Equal(t, 1, p.FindVariant(variant.FromMap(map[string]string{"size": "M"})))
		require.NotNil(t, p.Variants[1].DiscountedPrice)
		assert.Equal(t, 22.0, *p.Variants[1].DiscountedPrice)
		assert.Equal(t, []string{"S", "M"}, p.Attributes[0].Options)
	})

	t.Run("Not found", func(t *testing.T) {
		p, err := repo.GetByID(ctx, "NOPE")
		require.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestProductRepository_GetByIDs(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seller := seedSeller(t, pool, "alpha")
	seedProducts(t, pool, sampleProducts(seller.ID))
	repo := NewProductRepository(pool, zerolog.Nop())

	products, err := repo.GetByIDs(context.Background(), []string{"P001", "P003", "MISSING"})
	require.NoError(t, err)
	assert.Len(t, products, 2)

	products, err = repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProductRepository_CreateUpdateDelete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seller := seedSeller(t, pool, "alpha")
	other := seedSeller(t, pool, "beta")
	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	p := sampleProducts(seller.ID)[0]
	require.NoError(t, repo.Create(ctx, &p))

	dup := p
	assert.ErrorIs(t, repo.Create(ctx, &dup), model.ErrProductExists)

	p.Name = "Renamed"
	p.Images = []string{"/uploads/a.png"}
	require.NoError(t, repo.Update(ctx, &p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, []string{"/uploads/a.png"}, got.Images)

	foreign := p
	foreign.SellerID = other.ID
	assert.ErrorIs(t, repo.Update(ctx, &foreign), model.ErrProductNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, other.ID, p.ID), model.ErrProductNotFound)

	require.NoError(t, repo.Delete(ctx, seller.ID, p.ID))
	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProductRepository_LockAndUpdateStock(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seller := seedSeller(t, pool, "alpha")
	seedProducts(t, pool, sampleProducts(seller.ID))
	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)

	locked, err := repo.LockForUpdate(ctx, tx, []string{"P004", "P001"})
	require.NoError(t, err)
	require.Len(t, locked, 2)
	assert.Equal(t, "P001", locked[0].ID)

	locked[0].Stock = 0
	locked[0].StockStatus = model.StockStatusOutOfStock
	locked[1].Variants[0].Stock = 1
	for i := range locked {
		require.NoError(t, repo.UpdateStock(ctx, tx, &locked[i]))
	}
	require.NoError(t, tx.Commit(ctx))

	flat, err := repo.GetByID(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, 0, flat.Stock)
	assert.Equal(t, model.StockStatusOutOfStock, flat.StockStatus)

	shirt, err := repo.GetByID(ctx, "P004")
	require.NoError(t, err)
	assert.Equal(t, 1, shirt.Variants[0].Stock)
}

func TestProductRepository_ErrorPaths(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	repo := NewProductRepository(pool, zerolog.Nop())
	cleanup()

	ctx := context.Background()

	_, err := repo.GetByID(ctx, "P001")
	assert.Error(t, err)

	_, err = repo.List(ctx, model.ProductFilter{Limit: 10})
	assert.Error(t, err)

	_, err = repo.GetByIDs(ctx, []string{"P001"})
	assert.Error(t, err)
}

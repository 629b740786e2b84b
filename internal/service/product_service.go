package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	catalog      *Catalog
	store        storage.Storage
	defaults     config.Defaults
	maxImage     int64
	logger       zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	catalog *Catalog,
	store storage.Storage,
	defaults config.Defaults,
	maxImageBytes int64,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		catalog:      catalog,
		store:        store,
		defaults:     defaults,
		maxImage:     maxImageBytes,
		logger:       logger.With().Str("service", "product").Logger(),
	}
}

// validateProduct checks the shape rules the struct tags cannot express.
func validateProduct(req *model.ProductRequest) error {
	if !req.HasVariations && req.DiscountedPrice != nil && *req.DiscountedPrice > req.Price {
		return model.InvalidProduct("discountedPrice cannot exceed price")
	}

	if !req.HasVariations {
		if len(req.Attributes) > 0 || len(req.Variants) > 0 {
			return model.InvalidProduct("attributes and variants require hasVariations")
		}
		return nil
	}

	if len(req.Attributes) == 0 {
		return model.InvalidProduct("a product with variations needs at least one attribute")
	}
	if len(req.Variants) == 0 {
		return model.InvalidProduct("a product with variations needs at least one variant")
	}

	options := make(map[string]map[string]bool, len(req.Attributes))
	for _, a := range req.Attributes {
		if _, dup := options[a.Name]; dup {
			return model.InvalidProduct(fmt.Sprintf("attribute %q declared twice", a.Name))
		}
		set := make(map[string]bool, len(a.Options))
		for _, o := range a.Options {
			if set[o] {
				return model.InvalidProduct(fmt.Sprintf("attribute %q lists option %q twice", a.Name, o))
			}
			set[o] = true
		}
		options[a.Name] = set
	}

	seen := make(map[string]bool, len(req.Variants))
	for _, v := range req.Variants {
		if v.Combination.Len() != len(options) {
			return model.InvalidProduct(fmt.Sprintf("variant %s must set every attribute exactly once", v.Combination))
		}
		for _, pair := range v.Combination.Pairs() {
			allowed, ok := options[pair.Key]
			if !ok {
				return model.InvalidProduct(fmt.Sprintf("variant %s uses unknown attribute %q", v.Combination, pair.Key))
			}
			if !allowed[pair.Value] {
				return model.InvalidProduct(fmt.Sprintf("variant %s uses unknown option %q for %q", v.Combination, pair.Value, pair.Key))
			}
		}
		key := v.Combination.Key()
		if seen[key] {
			return model.InvalidProduct(fmt.Sprintf("variant %s declared twice", v.Combination))
		}
		seen[key] = true
		if v.DiscountedPrice != nil && *v.DiscountedPrice > v.Price {
			return model.InvalidProduct(fmt.Sprintf("variant %s discountedPrice cannot exceed price", v.Combination))
		}
	}

	return nil
}

func (s *productService) checkCategory(ctx context.Context, sellerID uuid.UUID, name string) error {
	if name == "" {
		return nil
	}
	categories, err := s.categoryRepo.List(ctx, sellerID)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	for _, c := range categories {
		if c.Name == name {
			return nil
		}
	}
	return model.ErrCategoryNotFound
}

// apply copies the request onto p and derives the stock fields.
func (s *productService) apply(p *model.Product, req *model.ProductRequest) {
	p.Name = strings.TrimSpace(req.Name)
	p.Description = req.Description
	p.Category = req.Category
	p.Price = req.Price
	p.DiscountedPrice = req.DiscountedPrice
	p.Stock = req.Stock
	p.StockStatus = req.StockStatus
	p.TaxPercentage = req.TaxPercentage
	p.HasVariations = req.HasVariations
	p.Attributes = req.Attributes
	p.Variants = req.Variants

	if p.HasVariations {
		total := 0
		for _, v := range p.Variants {
			total += v.Stock
		}
		p.Stock = total
	} else {
		p.Attributes = nil
		p.Variants = nil
	}

	if p.StockStatus == "" {
		p.StockStatus = s.defaults.StockStatus
	}
}

func (s *productService) Create(ctx context.Context, sellerID uuid.UUID, req *model.ProductRequest) (*model.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, sellerID, req.Category); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &model.Product{
		ID:        req.ID,
		SellerID:  sellerID,
		Images:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.apply(p, req)

	if err := s.productRepo.Create(ctx, p); err != nil {
		if errors.Is(err, model.ErrProductExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().Str("product_id", p.ID).Str("seller_id", sellerID.String()).Msg("product created")
	return p, nil
}

// load fetches the seller's product from the database, bypassing the cache.
func (s *productService) load(ctx context.Context, sellerID uuid.UUID, id string) (*model.Product, error) {
	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if p == nil || p.SellerID != sellerID {
		return nil, model.ErrProductNotFound
	}
	return p, nil
}

func (s *productService) save(ctx context.Context, p *model.Product) error {
	p.UpdatedAt = time.Now().UTC()
	if err := s.productRepo.Update(ctx, p); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return err
		}
		s.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}
	s.catalog.Invalidate(ctx, p.ID)
	return nil
}

// Update replaces the product's mutable fields. Existing images are kept and
// variant images carry over to variants with the same combination.
func (s *productService) Update(ctx context.Context, sellerID uuid.UUID, req *model.ProductRequest) (*model.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, sellerID, req.Category); err != nil {
		return nil, err
	}

	p, err := s.load(ctx, sellerID, req.ID)
	if err != nil {
		return nil, err
	}

	previous := make(map[string][]string, len(p.Variants))
	for _, v := range p.Variants {
		previous[v.Combination.Key()] = v.Images
	}

	s.apply(p, req)
	for i := range p.Variants {
		if len(p.Variants[i].Images) == 0 {
			p.Variants[i].Images = previous[p.Variants[i].Combination.Key()]
		}
	}

	if err := s.save(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().Str("product_id", p.ID).Msg("product updated")
	return p, nil
}

func (s *productService) Delete(ctx context.Context, sellerID uuid.UUID, id string) error {
	if err := s.productRepo.Delete(ctx, sellerID, id); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.catalog.Invalidate(ctx, id)
	s.logger.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

// Get retrieves a product of the given seller through the cache.
func (s *productService) Get(ctx context.Context, sellerID uuid.UUID, id string) (*model.Product, error) {
	if id == "" {
		return nil, model.ErrProductNotFound
	}

	p, err := s.catalog.Get(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product")
		return nil, err
	}
	if p == nil || p.SellerID != sellerID {
		return nil, model.ErrProductNotFound
	}
	return p, nil
}

func (s *productService) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)

	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", filter.Limit).
		Int("offset", filter.Offset).
		Msg("retrieved products")

	return products, nil
}

// sniffImage reads enough of r to detect its content type and returns a
// reader that replays those bytes.
func sniffImage(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("failed to read image: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if !imageTypes[contentType] {
		contentType = ""
	}
	return contentType, io.MultiReader(bytes.NewReader(head), r), nil
}

var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/gif":  true,
}

func (s *productService) AddImage(ctx context.Context, sellerID uuid.UUID, id string, r io.Reader, in model.ProductImageUpload) (*model.Product, error) {
	if in.Size > s.maxImage || storage.SafeExt(in.Filename) == "" {
		return nil, model.ErrInvalidImage
	}

	contentType, body, err := sniffImage(r)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		return nil, model.ErrInvalidImage
	}

	p, err := s.load(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}

	idx := -1
	if !in.Variant.IsEmpty() {
		if idx = p.FindVariant(in.Variant); idx < 0 {
			return nil, model.ErrVariantNotFound
		}
	}

	res, err := s.store.Put(ctx, io.LimitReader(body, s.maxImage), storage.PutInput{
		Filename:    in.Filename,
		ContentType: contentType,
		Size:        in.Size,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to store image")
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	if idx >= 0 {
		p.Variants[idx].Images = append(p.Variants[idx].Images, res.URL)
	} else {
		p.Images = append(p.Images, res.URL)
	}

	if err := s.save(ctx, p); err != nil {
		if delErr := s.store.Delete(ctx, res.Key); delErr != nil {
			s.logger.Warn().Err(delErr).Str("key", res.Key).Msg("failed to remove orphaned image")
		}
		return nil, err
	}

	s.logger.Info().Str("product_id", id).Str("url", res.URL).Msg("image attached")
	return p, nil
}

func (s *productService) RemoveImage(ctx context.Context, sellerID uuid.UUID, id, url string) (*model.Product, error) {
	p, err := s.load(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}

	found := false
	drop := func(images []string) []string {
		before := len(images)
		images = slices.DeleteFunc(images, func(u string) bool { return u == url })
		found = found || len(images) != before
		return images
	}
	p.Images = drop(p.Images)
	for i := range p.Variants {
		p.Variants[i].Images = drop(p.Variants[i].Images)
	}
	if !found {
		return nil, model.ErrImageNotFound
	}

	if err := s.save(ctx, p); err != nil {
		return nil, err
	}

	if key, ok := s.store.KeyFromURL(url); ok {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to delete image object")
		}
	}

	return p, nil
}

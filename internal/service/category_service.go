package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type categoryService struct {
	repo   repository.CategoryRepository
	logger zerolog.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(repo repository.CategoryRepository, logger zerolog.Logger) CategoryService {
	return &categoryService{
		repo:   repo,
		logger: logger.With().Str("service", "category").Logger(),
	}
}

func (s *categoryService) Create(ctx context.Context, sellerID uuid.UUID, req *model.CategoryRequest) (*model.Category, error) {
	c := &model.Category{
		ID:        uuid.New(),
		SellerID:  sellerID,
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, model.ErrCategoryExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Debug().Str("seller_id", sellerID.String()).Str("name", c.Name).Msg("category created")
	return c, nil
}

func (s *categoryService) List(ctx context.Context, sellerID uuid.UUID) ([]model.Category, error) {
	categories, err := s.repo.List(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) Delete(ctx context.Context, sellerID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, sellerID, id); err != nil {
		if errors.Is(err, model.ErrCategoryNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

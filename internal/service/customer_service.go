package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace/internal/allowlist"
	"marketplace/internal/config"
	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type customerService struct {
	repo     repository.CustomerRepository
	loader   allowlist.Loader
	defaults config.Defaults
	logger   zerolog.Logger
}

// NewCustomerService creates a new customer service. loader resolves the
// paths passed to Import.
func NewCustomerService(
	repo repository.CustomerRepository,
	loader allowlist.Loader,
	defaults config.Defaults,
	logger zerolog.Logger,
) CustomerService {
	return &customerService{
		repo:     repo,
		loader:   loader,
		defaults: defaults,
		logger:   logger.With().Str("service", "customer").Logger(),
	}
}

func (s *customerService) Add(ctx context.Context, sellerID uuid.UUID, req *model.CustomerRequest) (*model.Customer, error) {
	c := &model.Customer{
		ID:        uuid.New(),
		SellerID:  sellerID,
		Name:      strings.TrimSpace(req.Name),
		Email:     normalizeEmail(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Address:   req.Address,
		CreatedAt: time.Now().UTC(),
	}
	if c.Address.Country == "" {
		c.Address.Country = s.defaults.Country
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, model.ErrCustomerExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add customer: %w", err)
	}

	s.logger.Info().Str("seller_id", sellerID.String()).Str("customer_id", c.ID.String()).Msg("customer added")
	return c, nil
}

func (s *customerService) List(ctx context.Context, sellerID uuid.UUID) ([]model.Customer, error) {
	customers, err := s.repo.List(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (s *customerService) Remove(ctx context.Context, sellerID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, sellerID, id); err != nil {
		if errors.Is(err, model.ErrCustomerNotFound) {
			return err
		}
		return fmt.Errorf("failed to remove customer: %w", err)
	}
	return nil
}

// Import loads allow-list files and adds every new email to the seller's
// customers. Emails already on the list are left untouched.
func (s *customerService) Import(ctx context.Context, sellerID uuid.UUID, paths []string) (*model.ImportResult, error) {
	list, err := allowlist.LoadAll(ctx, s.loader, paths, s.logger)
	if err != nil {
		s.logger.Error().Err(err).Strs("paths", paths).Msg("failed to load customer files")
		return nil, fmt.Errorf("failed to load customer files: %w", err)
	}

	now := time.Now().UTC()
	customers := make([]model.Customer, 0, list.Size())
	for _, e := range list.Entries {
		customers = append(customers, model.Customer{
			ID:        uuid.New(),
			SellerID:  sellerID,
			Name:      e.Name,
			Email:     normalizeEmail(e.Email),
			Phone:     e.Phone,
			Address:   model.Address{Country: s.defaults.Country},
			CreatedAt: now,
		})
	}

	inserted := 0
	if len(customers) > 0 {
		inserted, err = s.repo.CreateMany(ctx, customers)
		if err != nil {
			return nil, fmt.Errorf("failed to import customers: %w", err)
		}
	}

	result := &model.ImportResult{
		Read:     list.Size() + list.Skipped,
		Inserted: inserted,
		Skipped:  list.Skipped + list.Size() - inserted,
	}

	s.logger.Info().
		Str("seller_id", sellerID.String()).
		Int("read", result.Read).
		Int("inserted", result.Inserted).
		Int("skipped", result.Skipped).
		Msg("customer import finished")

	return result, nil
}

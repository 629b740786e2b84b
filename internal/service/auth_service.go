package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace/internal/auth"
	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type authService struct {
	sellerRepo   repository.SellerRepository
	customerRepo repository.CustomerRepository
	tokens       *auth.Tokens
	cost         int
	logger       zerolog.Logger
}

// NewAuthService creates a new auth service. cost is the bcrypt cost; zero
// selects bcrypt.DefaultCost.
func NewAuthService(
	sellerRepo repository.SellerRepository,
	customerRepo repository.CustomerRepository,
	tokens *auth.Tokens,
	cost int,
	logger zerolog.Logger,
) AuthService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &authService{
		sellerRepo:   sellerRepo,
		customerRepo: customerRepo,
		tokens:       tokens,
		cost:         cost,
		logger:       logger.With().Str("service", "auth").Logger(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) issue(p auth.Principal) (*model.TokenResponse, error) {
	resp, err := s.tokens.Issue(p)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to issue token")
		return nil, err
	}
	return &resp, nil
}

// RegisterSeller creates a seller account and returns a token for it.
func (s *authService) RegisterSeller(ctx context.Context, req *model.SellerRegisterRequest) (*model.TokenResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	seller := &model.Seller{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.sellerRepo.Create(ctx, seller); err != nil {
		if errors.Is(err, model.ErrSellerExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register seller: %w", err)
	}

	s.logger.Info().Str("seller_id", seller.ID.String()).Msg("seller registered")
	return s.issue(auth.Principal{ID: seller.ID, Role: model.RoleSeller, SellerID: seller.ID})
}

// LoginSeller verifies seller credentials.
func (s *authService) LoginSeller(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	seller, err := s.sellerRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up seller: %w", err)
	}
	if seller == nil || bcrypt.CompareHashAndPassword(seller.PasswordHash, []byte(req.Password)) != nil {
		s.logger.Warn().Msg("seller login failed")
		return nil, model.ErrInvalidCredentials
	}

	return s.issue(auth.Principal{ID: seller.ID, Role: model.RoleSeller, SellerID: seller.ID})
}

// RegisterCustomer lets an allow-listed customer choose a password.
func (s *authService) RegisterCustomer(ctx context.Context, req *model.CustomerAuthRequest) (*model.TokenResponse, error) {
	customer, err := s.customerRepo.GetByEmail(ctx, req.SellerID, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up customer: %w", err)
	}
	if customer == nil {
		s.logger.Warn().Str("seller_id", req.SellerID.String()).Msg("registration attempt for email not on allow-list")
		return nil, model.ErrNotAllowListed
	}
	if customer.Registered {
		return nil, model.ErrAlreadyRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.customerRepo.SetPassword(ctx, customer.ID, hash); err != nil {
		return nil, fmt.Errorf("failed to register customer: %w", err)
	}

	s.logger.Info().
		Str("customer_id", customer.ID.String()).
		Str("seller_id", customer.SellerID.String()).
		Msg("customer registered")

	return s.issue(auth.Principal{ID: customer.ID, Role: model.RoleCustomer, SellerID: customer.SellerID})
}

// LoginCustomer verifies customer credentials against the seller's allow-list.
func (s *authService) LoginCustomer(ctx context.Context, req *model.CustomerAuthRequest) (*model.TokenResponse, error) {
	customer, err := s.customerRepo.GetByEmail(ctx, req.SellerID, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up customer: %w", err)
	}
	if customer == nil || !customer.Registered ||
		bcrypt.CompareHashAndPassword(customer.PasswordHash, []byte(req.Password)) != nil {
		s.logger.Warn().Str("seller_id", req.SellerID.String()).Msg("customer login failed")
		return nil, model.ErrInvalidCredentials
	}

	return s.issue(auth.Principal{ID: customer.ID, Role: model.RoleCustomer, SellerID: customer.SellerID})
}

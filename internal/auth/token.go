// Package auth issues and verifies HS256 access tokens for sellers and customers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid token")

// Principal is the authenticated caller.
type Principal struct {
	ID   uuid.UUID
	Role string
	// SellerID is the caller's own ID for sellers and the owning seller for customers.
	SellerID uuid.UUID
}

// Claims is the token payload.
type Claims struct {
	Role   string `json:"role"`
	Seller string `json:"seller,omitempty"`
	jwt.RegisteredClaims
}

// Tokens signs and parses access tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token issuer/verifier.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for p.
func (t *Tokens) Issue(p Principal) (model.TokenResponse, error) {
	now := t.now()
	expires := now.Add(t.ttl)

	claims := Claims{
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	if p.Role == model.RoleCustomer {
		claims.Seller = p.SellerID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return model.TokenResponse{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return model.TokenResponse{Token: signed, ExpiresAt: expires.UTC(), Role: p.Role}, nil
}

// Parse verifies a token and returns its principal.
func (t *Tokens) Parse(token string) (Principal, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	p := Principal{ID: id, Role: claims.Role}
	switch claims.Role {
	case model.RoleSeller:
		p.SellerID = id
	case model.RoleCustomer:
		sellerID, err := uuid.Parse(claims.Seller)
		if err != nil {
			return Principal{}, fmt.Errorf("%w: bad seller", ErrInvalidToken)
		}
		p.SellerID = sellerID
	default:
		return Principal{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return p, nil
}

type contextKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal stored by the auth middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

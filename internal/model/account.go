package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles carried in auth tokens.
const (
	RoleSeller   = "seller"
	RoleCustomer = "customer"
)

// Seller owns a catalogue, a customer allow-list and the orders placed against it.
type Seller struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Customer is an allow-list entry of a seller. PasswordHash stays empty until
// the customer registers.
type Customer struct {
	ID           uuid.UUID `json:"id" db:"id"`
	SellerID     uuid.UUID `json:"sellerId" db:"seller_id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	Address      Address   `json:"address" db:"address"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	Registered   bool      `json:"registered"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Snapshot copies the customer's contact data for embedding in an order.
func (c *Customer) Snapshot() CustomerSnapshot {
	return CustomerSnapshot{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Address: c.Address,
	}
}

// Category groups a seller's products.
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SellerID  uuid.UUID `json:"sellerId" db:"seller_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CategoryRequest is the payload for creating a category.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// CustomerRequest is the payload for adding a customer to the allow-list.
type CustomerRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Email   string  `json:"email" validate:"required,email"`
	Phone   string  `json:"phone" validate:"max=32"`
	Address Address `json:"address"`
}

// CustomerImportRequest names gzipped allow-list files to import.
type CustomerImportRequest struct {
	Paths []string `json:"paths" validate:"required,min=1,max=10,dive,required"`
}

// ImportResult reports the outcome of an allow-list import.
type ImportResult struct {
	Read     int `json:"read"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// SellerRegisterRequest is the payload for seller sign-up.
type SellerRegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest is the payload for seller login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CustomerAuthRequest is the payload for customer register and login.
type CustomerAuthRequest struct {
	SellerID uuid.UUID `json:"sellerId" validate:"required"`
	Email    string    `json:"email" validate:"required,email"`
	Password string    `json:"password" validate:"required,min=8"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Role      string    `json:"role"`
}

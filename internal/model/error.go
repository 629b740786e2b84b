package model

import "net/http"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeInvalidItems        = "INVALID_ITEMS"
	ErrCodeEmptyOrder          = "EMPTY_ORDER"
	ErrCodeEmptyCart           = "EMPTY_CART"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeOrderNotEditable    = "ORDER_NOT_EDITABLE"
	ErrCodeInvalidTransition   = "INVALID_STATUS_TRANSITION"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeProductExists       = "PRODUCT_EXISTS"
	ErrCodeInvalidProduct      = "INVALID_PRODUCT"
	ErrCodeVariantNotFound     = "VARIANT_NOT_FOUND"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeCategoryNotFound    = "CATEGORY_NOT_FOUND"
	ErrCodeCategoryExists      = "CATEGORY_EXISTS"
	ErrCodeCustomerNotFound    = "CUSTOMER_NOT_FOUND"
	ErrCodeCustomerExists      = "CUSTOMER_EXISTS"
	ErrCodeNotAllowListed      = "NOT_ALLOW_LISTED"
	ErrCodeAlreadyRegistered   = "ALREADY_REGISTERED"
	ErrCodeSellerExists        = "SELLER_EXISTS"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeInvalidImage        = "INVALID_IMAGE"
	ErrCodeImageNotFound       = "IMAGE_NOT_FOUND"
	ErrCodeInvalidPaymentState = "INVALID_PAYMENT_STATUS"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure that maps onto a client-facing
// HTTP status.
type DomainError struct {
	Code    string
	Message string
	Status  int
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(status int, code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// Common domain errors
var (
	ErrInvalidItems       = NewDomainError(http.StatusBadRequest, ErrCodeInvalidItems, "items must be an array of {product, quantity, variant}")
	ErrDuplicateItem      = NewDomainError(http.StatusBadRequest, ErrCodeInvalidItems, "items contain the same product and variant more than once")
	ErrUnknownOrderItem   = NewDomainError(http.StatusUnprocessableEntity, ErrCodeInvalidItems, "items reference a product/variant that is not in the order; an edit cannot add lines")
	ErrQuantityIncrease   = NewDomainError(http.StatusUnprocessableEntity, ErrCodeInvalidItems, "order item quantities can only be reduced; an edit cannot raise a line above its ordered quantity")
	ErrEmptyOrder         = NewDomainError(http.StatusUnprocessableEntity, ErrCodeEmptyOrder, "an order must keep at least one item")
	ErrEmptyCart          = NewDomainError(http.StatusBadRequest, ErrCodeEmptyCart, "cart is empty")
	ErrOrderNotFound      = NewDomainError(http.StatusNotFound, ErrCodeOrderNotFound, "order not found")
	ErrOrderNotEditable   = NewDomainError(http.StatusConflict, ErrCodeOrderNotEditable, "order can no longer be edited")
	ErrInvalidTransition  = NewDomainError(http.StatusConflict, ErrCodeInvalidTransition, "invalid order status transition")
	ErrInvalidPayment     = NewDomainError(http.StatusBadRequest, ErrCodeInvalidPaymentState, "invalid payment status")
	ErrProductNotFound    = NewDomainError(http.StatusNotFound, ErrCodeProductNotFound, "product not found")
	ErrProductExists      = NewDomainError(http.StatusConflict, ErrCodeProductExists, "a product with this ID already exists")
	ErrVariantNotFound    = NewDomainError(http.StatusBadRequest, ErrCodeVariantNotFound, "variant not found for product")
	ErrVariantRequired    = NewDomainError(http.StatusBadRequest, ErrCodeVariantNotFound, "product has variations, a variant must be selected")
	ErrInvalidQuantity    = NewDomainError(http.StatusBadRequest, ErrCodeInvalidQuantity, "quantity must be greater than zero")
	ErrInsufficientStock  = NewDomainError(http.StatusConflict, ErrCodeInsufficientStock, "insufficient stock")
	ErrCategoryNotFound   = NewDomainError(http.StatusNotFound, ErrCodeCategoryNotFound, "category not found")
	ErrCategoryExists     = NewDomainError(http.StatusConflict, ErrCodeCategoryExists, "category already exists")
	ErrCustomerNotFound   = NewDomainError(http.StatusNotFound, ErrCodeCustomerNotFound, "customer not found")
	ErrCustomerExists     = NewDomainError(http.StatusConflict, ErrCodeCustomerExists, "customer already on allow-list")
	ErrNotAllowListed     = NewDomainError(http.StatusForbidden, ErrCodeNotAllowListed, "email is not on the seller's customer list")
	ErrAlreadyRegistered  = NewDomainError(http.StatusConflict, ErrCodeAlreadyRegistered, "customer already registered")
	ErrSellerExists       = NewDomainError(http.StatusConflict, ErrCodeSellerExists, "seller email already registered")
	ErrInvalidCredentials = NewDomainError(http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid email or password")
	ErrInvalidImage       = NewDomainError(http.StatusBadRequest, ErrCodeInvalidImage, "image must be a jpeg, png, webp or gif up to 5 MiB")
	ErrImageNotFound      = NewDomainError(http.StatusNotFound, ErrCodeImageNotFound, "image not found on product")
)

// InvalidProduct returns a validation error for product payloads.
func InvalidProduct(message string) *DomainError {
	return NewDomainError(http.StatusBadRequest, ErrCodeInvalidProduct, message)
}

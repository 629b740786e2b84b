package handler

import (
	"context"
	"net/http"

	"marketplace/internal/model"
	"marketplace/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CartHandler handles the customer's cart.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/customer/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	cart, err := h.service.Get(r.Context(), p.ID, p.SellerID)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart, h.logger)
}

// AddItem handles POST /api/customer/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.AddItem)
}

// SetItem handles PUT /api/customer/cart/items.
func (h *CartHandler) SetItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.SetItem)
}

// RemoveItem handles DELETE /api/customer/cart/items.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.RemoveItem)
}

type cartMutation func(ctx context.Context, customerID, sellerID uuid.UUID, req *model.CartItemRequest) (*model.CartResponse, error)

func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, fn cartMutation) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CartItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	cart, err := fn(r.Context(), p.ID, p.SellerID, &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart, h.logger)
}

// Clear handles DELETE /api/customer/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	cart, err := h.service.Clear(r.Context(), p.ID, p.SellerID)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart, h.logger)
}

package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"marketplace/internal/model"
	"marketplace/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// OrderMessageResponse is returned by order mutations.
type OrderMessageResponse struct {
	Message string               `json:"message"`
	Order   *model.OrderResponse `json:"order"`
}

// StatusRequest changes an order's lifecycle status.
type StatusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required,oneof=accepted cancelled shipped delivered"`
}

// PaymentRequest changes an order's payment status.
type PaymentRequest struct {
	PaymentStatus model.PaymentStatus `json:"paymentStatus" validate:"required"`
}

// Checkout handles POST /api/customer/orders.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	order, err := h.service.Checkout(r.Context(), p.ID, p.SellerID)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, OrderMessageResponse{Message: "Order placed", Order: order}, h.logger)
}

// ListForCustomer handles GET /api/customer/orders.
func (h *OrderHandler) ListForCustomer(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	limit, offset, ok := pageParams(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.service.ListForCustomer(r.Context(), p.ID, limit, offset)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders, h.logger)
}

// GetForCustomer handles GET /api/customer/orders/{id}.
func (h *OrderHandler) GetForCustomer(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}

	order, err := h.service.GetForCustomer(r.Context(), p.ID, id)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order, h.logger)
}

// ListForSeller handles GET /api/seller/orders with an optional status filter.
func (h *OrderHandler) ListForSeller(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	limit, offset, ok := pageParams(w, r, h.logger)
	if !ok {
		return
	}

	status := model.OrderStatus(r.URL.Query().Get("status"))
	if err := validate.Var(string(status), "omitempty,oneof=pending accepted cancelled shipped delivered"); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid status parameter", h.logger)
		return
	}

	orders, err := h.service.ListForSeller(r.Context(), p.SellerID, status, limit, offset)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders, h.logger)
}

// GetForSeller handles GET /api/seller/orders/{id}.
func (h *OrderHandler) GetForSeller(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}

	order, err := h.service.GetForSeller(r.Context(), p.SellerID, id)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order, h.logger)
}

// UpdateStatus handles PATCH /api/seller/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req StatusRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), p.SellerID, id, req.Status)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, OrderMessageResponse{Message: "Order status updated", Order: order}, h.logger)
}

// UpdatePayment handles PATCH /api/seller/orders/{id}/payment.
func (h *OrderHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req PaymentRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.service.UpdatePayment(r.Context(), p.SellerID, id, req.PaymentStatus)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, OrderMessageResponse{Message: "Payment status updated", Order: order}, h.logger)
}

// updateItemsRequest keeps items raw so a missing or non-array value can be
// told apart from an empty array.
type updateItemsRequest struct {
	Items json.RawMessage `json:"items"`
}

// UpdateItems handles PUT /api/seller/orders/{id}/items.
func (h *OrderHandler) UpdateItems(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req updateItemsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body: "+err.Error(), h.logger)
		return
	}

	raw := bytes.TrimSpace(req.Items)
	if len(raw) == 0 || raw[0] != '[' {
		writeServiceError(w, r, model.ErrInvalidItems, h.logger)
		return
	}

	items := []model.OrderItemUpdate{}
	if err := json.Unmarshal(raw, &items); err != nil {
		writeServiceError(w, r, model.ErrInvalidItems, h.logger)
		return
	}

	order, err := h.service.UpdateItems(r.Context(), p.SellerID, id, items)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, OrderMessageResponse{Message: "Order items updated", Order: order}, h.logger)
}

package handler

import (
	"net/http"

	"marketplace/internal/model"
	"marketplace/internal/service"

	"github.com/rs/zerolog"
)

// CustomerHandler handles a seller's customer allow-list requests.
type CustomerHandler struct {
	service service.CustomerService
	logger  zerolog.Logger
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(service service.CustomerService, logger zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: service,
		logger:  logger.With().Str("handler", "customer").Logger(),
	}
}

// Add handles POST /api/seller/customers.
func (h *CustomerHandler) Add(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CustomerRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	customer, err := h.service.Add(r.Context(), p.SellerID, &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, customer, h.logger)
}

// List handles GET /api/seller/customers.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	customers, err := h.service.List(r.Context(), p.SellerID)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, customers, h.logger)
}

// Remove handles DELETE /api/seller/customers/{id}.
func (h *CustomerHandler) Remove(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), p.SellerID, id); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Import handles POST /api/seller/customers/import.
func (h *CustomerHandler) Import(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CustomerImportRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.Import(r.Context(), p.SellerID, req.Paths)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result, h.logger)
}

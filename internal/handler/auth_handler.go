package handler

import (
	"net/http"

	"marketplace/internal/model"
	"marketplace/internal/service"

	"github.com/rs/zerolog"
)

// AuthHandler handles sign-up and login requests.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("handler", "auth").Logger(),
	}
}

// RegisterSeller handles POST /api/auth/seller/register.
func (h *AuthHandler) RegisterSeller(w http.ResponseWriter, r *http.Request) {
	var req model.SellerRegisterRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.service.RegisterSeller(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp, h.logger)
}

// LoginSeller handles POST /api/auth/seller/login.
func (h *AuthHandler) LoginSeller(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.service.LoginSeller(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp, h.logger)
}

// RegisterCustomer handles POST /api/auth/customer/register.
func (h *AuthHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req model.CustomerAuthRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.service.RegisterCustomer(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp, h.logger)
}

// LoginCustomer handles POST /api/auth/customer/login.
func (h *AuthHandler) LoginCustomer(w http.ResponseWriter, r *http.Request) {
	var req model.CustomerAuthRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.service.LoginCustomer(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp, h.logger)
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"marketplace/internal/model"
	"marketplace/internal/service"
	"marketplace/internal/variant"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// multipartOverhead is the allowance for form fields and boundaries on top
// of the image itself.
const multipartOverhead = 64 << 10

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service  service.ProductService
	maxImage int64
	logger   zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, maxImageBytes int64, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		maxImage: maxImageBytes,
		logger:   logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /api/seller/products and GET /api/customer/products.
// Customers see the products of the seller they belong to.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	limit, offset, ok := pageParams(w, r, h.logger)
	if !ok {
		return
	}

	products, err := h.service.List(r.Context(), model.ProductFilter{
		SellerID: p.SellerID,
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products, h.logger)
}

// Get handles GET /api/seller/products/{id} and GET /api/customer/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	product, err := h.service.Get(r.Context(), p.SellerID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product, h.logger)
}

// Create handles POST /api/seller/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	var req model.ProductRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	product, err := h.service.Create(r.Context(), p.SellerID, &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, product, h.logger)
}

// Update handles PUT /api/seller/products/{id}. The path ID wins over any
// ID in the body.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	var req model.ProductRequest
	req.ID = chi.URLParam(r, "id")
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	req.ID = chi.URLParam(r, "id")

	product, err := h.service.Update(r.Context(), p.SellerID, &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product, h.logger)
}

// Delete handles DELETE /api/seller/products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), p.SellerID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImage handles POST /api/seller/products/{id}/images with a multipart
// "image" file and an optional "variant" field holding a combination object.
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxImage+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxImage); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, r, model.ErrInvalidImage, h.logger)
			return
		}
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid multipart form", h.logger)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn().Err(err).Msg("failed to remove multipart temp files")
		}
	}()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "image file is required", h.logger)
		return
	}
	defer file.Close()

	var combo variant.Combination
	if raw := r.FormValue("variant"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &combo); err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "variant must be a JSON object of strings", h.logger)
			return
		}
	}

	product, err := h.service.AddImage(r.Context(), p.SellerID, chi.URLParam(r, "id"), file, model.ProductImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Variant:     combo,
	})
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, product, h.logger)
}

// ImageRequest identifies an image to detach.
type ImageRequest struct {
	URL string `json:"url" validate:"required"`
}

// DeleteImage handles DELETE /api/seller/products/{id}/images.
func (h *ProductHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}

	var req ImageRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	product, err := h.service.RemoveImage(r.Context(), p.SellerID, chi.URLParam(r, "id"), req.URL)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product, h.logger)
}

package router

import (
	"encoding/json"
	"net/http"
	"strings"

	"marketplace/internal/auth"
	"marketplace/internal/config"
	"marketplace/internal/handler"
	"marketplace/internal/middleware"
	"marketplace/internal/model"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth     *handler.AuthHandler
	Category *handler.CategoryHandler
	Customer *handler.CustomerHandler
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Order    *handler.OrderHandler
}

// New creates a new HTTP router with all routes and middleware configured.
// Uploaded images are served from disk when the local storage driver is used.
func New(h Handlers, tokens *auth.Tokens, storage config.StorageConfig, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, r, http.StatusNotFound, model.ErrCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, r, http.StatusMethodNotAllowed, model.ErrCodeNotFound, "method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	if storage.Driver == "local" {
		prefix := "/" + strings.Trim(storage.LocalURLPrefix, "/")
		files := http.StripPrefix(prefix, http.FileServer(http.Dir(storage.LocalDir)))
		r.Get(prefix+"/*", files.ServeHTTP)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/seller/register", h.Auth.RegisterSeller)
		r.Post("/seller/login", h.Auth.LoginSeller)
		r.Post("/customer/register", h.Auth.RegisterCustomer)
		r.Post("/customer/login", h.Auth.LoginCustomer)
	})

	r.Route("/api/seller", func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens, logger))
		r.Use(middleware.RequireRole(model.RoleSeller))

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.Category.List)
			r.Post("/", h.Category.Create)
			r.Delete("/{id}", h.Category.Delete)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Product.List)
			r.Post("/", h.Product.Create)
			r.Get("/{id}", h.Product.Get)
			r.Put("/{id}", h.Product.Update)
			r.Delete("/{id}", h.Product.Delete)
			r.Post("/{id}/images", h.Product.UploadImage)
			r.Delete("/{id}/images", h.Product.DeleteImage)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.Customer.List)
			r.Post("/", h.Customer.Add)
			r.Post("/import", h.Customer.Import)
			r.Delete("/{id}", h.Customer.Remove)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.Order.ListForSeller)
			r.Get("/{id}", h.Order.GetForSeller)
			r.Patch("/{id}/status", h.Order.UpdateStatus)
			r.Patch("/{id}/payment", h.Order.UpdatePayment)
			r.Put("/{id}/items", h.Order.UpdateItems)
		})
	})

	r.Route("/api/customer", func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens, logger))
		r.Use(middleware.RequireRole(model.RoleCustomer))

		r.Get("/products", h.Product.List)
		r.Get("/products/{id}", h.Product.Get)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.Get)
			r.Delete("/", h.Cart.Clear)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items", h.Cart.SetItem)
			r.Delete("/items", h.Cart.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.Order.ListForCustomer)
			r.Post("/", h.Order.Checkout)
			r.Get("/{id}", h.Order.GetForCustomer)
		})
	})

	return r
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: chimw.GetReqID(r.Context()),
	})
}

package transport

import (
	"net/http"
	"strings"

	"majoe-store/internal/domain"
	"majoe-store/internal/middleware"
	"majoe-store/internal/repository"
	"majoe-store/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for catalog operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers the catalog routes. Mutations go through adminOnly.
func (h *ProductHandler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		// Public routes
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List handles GET /api/products?category=&featured=&new=&sale=&q=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	products, err := h.productService.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Get handles GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create handles POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := middleware.DecodeJSON(w, r, &raw); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	product, err := h.productService.Add(r.Context(), raw)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID),
		zap.String("category", string(product.Category)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update handles PUT /api/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := middleware.DecodeJSON(w, r, &patch); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	product, err := h.productService.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", product.ID))
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /api/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	removed, err := h.productService.Delete(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	if removed {
		h.logger.Info("Product deleted", zap.String("product_id", id))
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": removed})
}

func parseFilter(r *http.Request) (repository.ProductFilter, error) {
	q := r.URL.Query()
	filter := repository.ProductFilter{
		Category: domain.Category(strings.TrimSpace(q.Get("category"))),
		Query:    strings.TrimSpace(q.Get("q")),
	}

	verr := &domain.ValidationError{}
	flags := []struct {
		param string
		dst   *bool
	}{
		{"featured", &filter.Featured},
		{"new", &filter.NewProduct},
		{"sale", &filter.OnSale},
	}
	for _, f := range flags {
		v := q.Get(f.param)
		if v == "" {
			continue
		}
		b, err := cast.ToBoolE(v)
		if err != nil {
			verr.Fields = append(verr.Fields, domain.FieldError{Field: f.param, Message: "must be true or false"})
			continue
		}
		*f.dst = b
	}

	if len(verr.Fields) > 0 {
		return filter, verr
	}
	return filter, nil
}

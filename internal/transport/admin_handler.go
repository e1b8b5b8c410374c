package transport

import (
	"fmt"
	"net/http"

	"majoe-store/internal/domain"
	"majoe-store/internal/middleware"
	"majoe-store/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const exportFilename = "productos-export.json"

// ImportResponse reports the outcome of a catalog import
type ImportResponse struct {
	Success  bool   `json:"success"`
	Imported int    `json:"imported"`
	Message  string `json:"message"`
}

// AdminHandler handles catalog export and import
type AdminHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(productService service.ProductService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers the admin routes. Every route goes through
// adminOnly; imports additionally pass importLimit.
func (h *AdminHandler) RegisterRoutes(r chi.Router, adminOnly, importLimit func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(adminOnly)
		r.Get("/export", h.Export)
		r.With(importLimit).Post("/import", h.Import)
	})
}

// Export handles GET /api/admin/export
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.productService.ExportAll(r.Context())
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Catalog exported", zap.Int("count", snapshot.Count))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename))
	middleware.RespondWithJSON(w, http.StatusOK, snapshot)
}

// Import handles POST /api/admin/import. The body is either an object
// {products, clearExisting} or a bare products array; clearExisting
// defaults to true.
func (h *AdminHandler) Import(w http.ResponseWriter, r *http.Request) {
	var body any
	if err := middleware.DecodeJSON(w, r, &body); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	payload, clearExisting, err := importPayload(body)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	n, err := h.productService.ImportAll(r.Context(), payload, clearExisting)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Catalog imported",
		zap.Int("imported", n),
		zap.Bool("clear_existing", clearExisting),
	)
	middleware.RespondWithJSON(w, http.StatusOK, ImportResponse{
		Success:  true,
		Imported: n,
		Message:  fmt.Sprintf("%d productos importados exitosamente", n),
	})
}

func importPayload(body any) (any, bool, error) {
	obj, ok := body.(map[string]any)
	if !ok {
		return body, true, nil
	}

	clearExisting := true
	if v, present := obj["clearExisting"]; present && v != nil {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return nil, false, domain.NewValidationError("clearExisting", "must be a boolean")
		}
		clearExisting = b
	}

	products, present := obj["products"]
	if !present {
		return nil, false, domain.NewValidationError("products", "is required")
	}
	return products, clearExisting, nil
}

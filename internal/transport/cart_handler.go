package transport

import (
	"net/http"
	"time"

	"majoe-store/internal/domain"
	"majoe-store/internal/middleware"
	"majoe-store/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const cartSessionCookie = "cart_session"

// AddItemRequest represents a line added to the cart
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=99"`
}

// UpdateItemRequest sets the quantity of a cart line; zero or less removes it
type UpdateItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" validate:"lte=99"`
}

// CartHandler handles HTTP requests for the session cart
type CartHandler struct {
	cartService service.CartService
	sessionTTL  time.Duration
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler. sessionTTL bounds the lifetime
// of the session cookie.
func NewCartHandler(cartService service.CartService, sessionTTL time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		sessionTTL:  sessionTTL,
		logger:      logger,
	}
}

// RegisterRoutes registers all cart routes
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/toggle", h.Toggle)
		r.Post("/items", h.AddItem)
		r.Put("/items", h.UpdateItem)
		r.Delete("/items", h.RemoveItem)
	})
}

// Get handles GET /api/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.cartService.Get(r.Context(), h.session(w, r))
	h.respond(w, r, view, err)
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	sessionID := h.session(w, r)
	view, err := h.cartService.AddItem(r.Context(), sessionID, req.ProductID, req.Size, req.Color, req.Quantity)
	if err == nil {
		h.logger.Debug("Cart item added",
			zap.String("session_id", sessionID),
			zap.String("product_id", req.ProductID),
			zap.Int("quantity", req.Quantity),
		)
	}
	h.respond(w, r, view, err)
}

// UpdateItem handles PUT /api/cart/items
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	view, err := h.cartService.UpdateQuantity(r.Context(), h.session(w, r), req.ProductID, req.Size, req.Color, req.Quantity)
	h.respond(w, r, view, err)
}

// RemoveItem handles DELETE /api/cart/items?productId=&size=&color=
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID := q.Get("productId")
	if productID == "" {
		respondServiceError(w, r, h.logger, domain.NewValidationError("productId", "is required"))
		return
	}

	view, err := h.cartService.RemoveItem(r.Context(), h.session(w, r), productID, q.Get("size"), q.Get("color"))
	h.respond(w, r, view, err)
}

// Clear handles DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	view, err := h.cartService.Clear(r.Context(), h.session(w, r))
	h.respond(w, r, view, err)
}

// Toggle handles POST /api/cart/toggle
func (h *CartHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	view, err := h.cartService.Toggle(r.Context(), h.session(w, r))
	h.respond(w, r, view, err)
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, view *service.CartView, err error) {
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	if view.Items == nil {
		view.Items = []domain.CartItem{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// session returns the cart session of the request, read from the cookie
// or the X-Cart-Session header. A missing or malformed id starts a new
// session. The id is always echoed back so the sliding expiry follows
// the cart.
func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) string {
	sessionID := r.Header.Get(middleware.CartSessionHeader)
	if c, err := r.Cookie(cartSessionCookie); err == nil && c.Value != "" {
		sessionID = c.Value
	}

	if _, err := uuid.Parse(sessionID); err != nil {
		sessionID = uuid.New().String()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cartSessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(middleware.CartSessionHeader, sessionID)
	return sessionID
}

package service

import (
	"context"
	"errors"
	"fmt"

	"majoe-store/internal/cache"
	"majoe-store/internal/cart"
	"majoe-store/internal/domain"
	"majoe-store/internal/repository"
)

var (
	ErrOutOfStock         = errors.New("product is out of stock")
	ErrVariantUnavailable = errors.New("selected variant is not available")
	ErrInsufficientStock  = errors.New("not enough stock for the requested quantity")
)

// CartView is a cart together with its derived totals
type CartView struct {
	SessionID  string            `json:"sessionId"`
	Items      []domain.CartItem `json:"items"`
	IsOpen     bool              `json:"isOpen"`
	TotalItems int               `json:"totalItems"`
	TotalPrice float64           `json:"totalPrice"`
}

// CartService defines the interface for shopping cart operations on a session
type CartService interface {
	Get(ctx context.Context, sessionID string) (*CartView, error)
	AddItem(ctx context.Context, sessionID, productID, size, color string, quantity int) (*CartView, error)
	UpdateQuantity(ctx context.Context, sessionID, productID, size, color string, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, sessionID, productID, size, color string) (*CartView, error)
	Clear(ctx context.Context, sessionID string) (*CartView, error)
	Toggle(ctx context.Context, sessionID string) (*CartView, error)
}

type cartService struct {
	store       cache.CartStore
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(store cache.CartStore, productRepo repository.ProductRepository) CartService {
	return &cartService{
		store:       store,
		productRepo: productRepo,
	}
}

func (s *cartService) Get(ctx context.Context, sessionID string) (*CartView, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return view(sessionID, c), nil
}

// AddItem snapshots the current catalog record of productID into the cart.
// The variant must be offered and available, and the product's total
// quantity across all lines may not exceed its stock.
func (s *cartService) AddItem(ctx context.Context, sessionID, productID, size, color string, quantity int) (*CartView, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := checkAvailability(c, product, size, color, quantity); err != nil {
		return nil, err
	}

	c.AddItem(*product, size, color, quantity)
	return s.save(ctx, sessionID, c)
}

func (s *cartService) UpdateQuantity(ctx context.Context, sessionID, productID, size, color string, quantity int) (*CartView, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) {
		c.UpdateQuantity(productID, size, color, quantity)
	})
}

func (s *cartService) RemoveItem(ctx context.Context, sessionID, productID, size, color string) (*CartView, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) {
		c.RemoveItem(productID, size, color)
	})
}

func (s *cartService) Clear(ctx context.Context, sessionID string) (*CartView, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) {
		c.Clear()
	})
}

func (s *cartService) Toggle(ctx context.Context, sessionID string) (*CartView, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) {
		c.Toggle()
	})
}

func (s *cartService) mutate(ctx context.Context, sessionID string, apply func(*cart.Cart)) (*CartView, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	apply(c)
	return s.save(ctx, sessionID, c)
}

// load returns the session cart; an unknown session is an empty cart
func (s *cartService) load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	state, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, cache.ErrCacheMiss) {
		return cart.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart.FromState(state), nil
}

// save persists the cart; an empty closed cart is the default state and is
// dropped from the store instead
func (s *cartService) save(ctx context.Context, sessionID string, c *cart.Cart) (*CartView, error) {
	if c.TotalItems() == 0 && !c.IsOpen() {
		if err := s.store.Delete(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("failed to delete cart: %w", err)
		}
		return view(sessionID, c), nil
	}
	if err := s.store.Set(ctx, sessionID, c.State()); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return view(sessionID, c), nil
}

func checkAvailability(c *cart.Cart, product *domain.Product, size, color string, quantity int) error {
	if product.Stock <= 0 {
		return ErrOutOfStock
	}

	if len(product.Sizes) > 0 {
		if opt, ok := product.FindSize(size); !ok || !opt.Available {
			return fmt.Errorf("%w: size %q", ErrVariantUnavailable, size)
		}
	}
	if len(product.Colors) > 0 {
		if opt, ok := product.FindColor(color); !ok || !opt.Available {
			return fmt.Errorf("%w: color %q", ErrVariantUnavailable, color)
		}
	}

	if quantity < 1 {
		quantity = 1
	}
	if quantity > product.Stock-c.QuantityOf(product.ID) {
		return fmt.Errorf("%w: %d in stock", ErrInsufficientStock, product.Stock)
	}
	current := 0
	if line, ok := c.Line(product.ID, size, color); ok {
		current = line.Quantity
	}
	if quantity > cart.MaxLineQuantity-current {
		return fmt.Errorf("%w: at most %d per line", ErrInsufficientStock, cart.MaxLineQuantity)
	}
	return nil
}

func view(sessionID string, c *cart.Cart) *CartView {
	return &CartView{
		SessionID:  sessionID,
		Items:      c.Items(),
		IsOpen:     c.IsOpen(),
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
	}
}

package cache

import (
	"context"
	"errors"

	"majoe-store/internal/cart"
)

// CartStore persists the cart state of a shopping session
type CartStore interface {
	Get(ctx context.Context, sessionID string) (cart.State, error)
	Set(ctx context.Context, sessionID string, state cart.State) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCacheMiss = errors.New("cache miss")

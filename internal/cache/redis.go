package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"majoe-store/internal/cart"

	"github.com/redis/go-redis/v9"
)

const defaultSessionTTL = 72 * time.Hour

// NewRedisCartStore stores carts as JSON under cart:<sessionID>. Every read
// or write pushes the expiry ttl into the future.
func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisCartStore{
		client: client,
		ttl:    ttl,
	}
}

type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (r *RedisCartStore) Get(ctx context.Context, sessionID string) (cart.State, error) {
	key := cacheKey(sessionID)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.State{}, ErrCacheMiss
	}
	if err != nil {
		return cart.State{}, fmt.Errorf("redis get failed: %w", err)
	}

	var state cart.State
	if err := json.Unmarshal(data, &state); err != nil {
		return cart.State{}, fmt.Errorf("unmarshal cart failed: %w", err)
	}

	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		return cart.State{}, fmt.Errorf("redis expire failed: %w", err)
	}

	return state, nil
}

func (r *RedisCartStore) Set(ctx context.Context, sessionID string, state cart.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if err := r.client.Set(ctx, cacheKey(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCartStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cacheKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

package service

import (
	"context"
	"strings"

	"majoe-store/internal/cache"
	"majoe-store/internal/cart"
	"majoe-store/internal/domain"
	"majoe-store/internal/repository"
)

// Mock repositories for testing
type mockProductRepository struct {
	products map[string]*domain.Product
	order    []string
	err      error
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: make(map[string]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
		m.order = append(m.order, p.ID)
	}
	return m
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if m.err != nil {
		return m.err
	}
	if _, exists := m.products[product.ID]; exists {
		return repository.ErrDuplicateProduct
	}
	stored := product.Clone()
	m.products[product.ID] = &stored
	m.order = append(m.order, product.ID)
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if m.err != nil {
		return m.err
	}
	if _, exists := m.products[product.ID]; !exists {
		return repository.ErrProductNotFound
	}
	stored := product.Clone()
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, exists := m.products[id]; !exists {
		return false, nil
	}
	delete(m.products, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	out := product.Clone()
	return &out, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []*domain.Product{}
	for _, id := range m.order {
		p := m.products[id]
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if (filter.Featured && !p.Featured) || (filter.NewProduct && !p.NewProduct) || (filter.OnSale && !p.OnSale) {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Query)) {
			continue
		}
		clone := p.Clone()
		out = append(out, &clone)
	}
	return out, nil
}

func (m *mockProductRepository) Count(ctx context.Context) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return len(m.products), nil
}

func (m *mockProductRepository) Import(ctx context.Context, products []*domain.Product, clearExisting bool) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	next := newMockProductRepository()
	if !clearExisting {
		for _, id := range m.order {
			next.products[id] = m.products[id]
			next.order = append(next.order, id)
		}
	}
	for _, p := range products {
		if err := next.Create(ctx, p); err != nil {
			return 0, err
		}
	}
	m.products, m.order = next.products, next.order
	return len(products), nil
}

type mockCartStore struct {
	carts map[string]cart.State
	err   error
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{carts: make(map[string]cart.State)}
}

func (m *mockCartStore) Get(ctx context.Context, sessionID string) (cart.State, error) {
	if m.err != nil {
		return cart.State{}, m.err
	}
	state, exists := m.carts[sessionID]
	if !exists {
		return cart.State{}, cache.ErrCacheMiss
	}
	return state, nil
}

func (m *mockCartStore) Set(ctx context.Context, sessionID string, state cart.State) error {
	if m.err != nil {
		return m.err
	}
	m.carts[sessionID] = state
	return nil
}

func (m *mockCartStore) Delete(ctx context.Context, sessionID string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.carts, sessionID)
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"majoe-store/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasField(verr *domain.ValidationError, field string) bool {
	for _, f := range verr.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func newTestProduct(t *testing.T, id, name string, category domain.Category, flags ...string) *domain.Product {
	t.Helper()

	raw := map[string]any{
		"id":          id,
		"name":        name,
		"description": "Prenda de algodón",
		"price":       50,
		"category":    string(category),
		"subcategory": "camisetas",
		"images":      []any{"https://cdn.example.com/" + id + ".jpg"},
		"sizes":       []any{map[string]any{"name": "M", "value": "m"}},
		"colors":      []any{map[string]any{"name": "Negro", "value": "#000"}},
		"stock":       3,
	}
	for _, flag := range flags {
		raw[flag] = true
	}

	p, err := domain.ParseProduct(raw)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Microsecond)
	p.CreatedAt, p.UpdatedAt = now, now
	return &p
}

// withoutTimestamps drops the store-managed columns so records can be compared by value
func withoutTimestamps(p *domain.Product) domain.Product {
	out := p.Clone()
	out.CreatedAt, out.UpdatedAt = time.Time{}, time.Time{}
	return out
}

func ids(products []*domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestProductRepository_CategoryScenario(t *testing.T) {
	resetProducts(t)
	repo := NewProductRepository(testDB, time.Second, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestProduct(t, "p1", "Tee", domain.CategoryMen)))

	men, err := repo.List(ctx, ProductFilter{Category: domain.CategoryMen})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids(men))

	women, err := repo.List(ctx, ProductFilter{Category: domain.CategoryWomen})
	require.NoError(t, err)
	assert.NotNil(t, women)
	assert.Empty(t, women)

	removed, err := repo.Delete(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = repo.FindByID(ctx, "p1")
	assert.ErrorIs(t, err, ErrProductNotFound)

	removed, err = repo.Delete(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, removed, "deleting an unknown id is a no-op")
}

func TestProductRepository_FindByIDPreservesDocumentFields(t *testing.T) {
	resetProducts(t)
	repo := NewProductRepository(testDB, time.Second, 30*time.Second)
	ctx := context.Background()

	p := newTestProduct(t, "p1", "Vestido", domain.CategoryWomen, "onSale")
	original := 80.0
	p.OriginalPrice = &original
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, withoutTimestamps(p), withoutTimestamps(got))
	assert.True(t, got.CreatedAt.Equal(p.CreatedAt))
}

func TestProductRepository_ListFiltersAreANDed(t *testing.T) {
	resetProducts(t)
	repo := NewProductRepository(testDB, time.Second, 30*time.Second)
	ctx := context.Background()

	for _, p := range []*domain.Product{
		newTestProduct(t, "a", "Camisa lino", domain.CategoryMen, "featured"),
		newTestProduct(t, "b", "Pantalón", domain.CategoryMen, "featured", "onSale"),
		newTestProduct(t, "c", "Falda", domain.CategoryWomen, "featured", "onSale", "newProduct"),
		newTestProduct(t, "d", "Sudadera", domain.CategoryKidsBoys, "newProduct"),
	} {
		require.NoError(t, repo.Create(ctx, p))
	}

	tests := []struct {
		name   string
		filter ProductFilter
		want   []string
	}{
		{"no filter returns all in insertion order", ProductFilter{}, []string{"a", "b", "c", "d"}},
		{"category", ProductFilter{Category: domain.CategoryMen}, []string{"a", "b"}},
		{"featured", ProductFilter{Featured: true}, []string{"a", "b", "c"}},
		{"featured and on sale", ProductFilter{Featured: true, OnSale: true}, []string{"b", "c"}},
		{"category and flag", ProductFilter{Category: domain.CategoryMen, OnSale: true}, []string{"b"}},
		{"new", ProductFilter{NewProduct: true}, []string{"c", "d"}},
		{"nothing matches", ProductFilter{Category: domain.CategoryKidsGirls}, []string{}},
		{"search is case insensitive", ProductFilter{Query: "camisa"}, []string{"a"}},
		{"search matches subcategory", ProductFilter{Query: "CAMISETAS", Category: domain.CategoryWomen}, []string{"c"}},
		{"search escapes wildcards", ProductFilter{Query: "%"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	// repeated reads of the same state return the same order
	first, err := repo.List(ctx, ProductFilter{})
	require.NoError(t, err)
	second, err := repo.List(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(second))
}

func TestProductRepository_UpdateUnknownProduct(t *testing.T) {
	resetProducts(t)
	repo := NewProductRepository(testDB, time.Second, 30*time.Second)

	err := repo.Update(context.Background(), newTestProduct(t, "ghost", "Ghost", domain.CategoryMen))
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductRepository_CreateDuplicateID(t *testing.T) {
	resetProducts(t)
	repo := NewProductRepository(testDB, time.Second, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestProduct(t, "p1", "Tee", domain.CategoryMen)))
	err := repo.Create(ctx, newTestProduct(t, "p1", "Other", domain.CategoryMen))
	assert.ErrorIs(t, err, ErrDuplicateProduct)
}

func TestProductRepository_StoreEnforcesCategory(t *testing.T) {
	resetProducts(t)
	repo := NewProductRepository(testDB, time.Second, 30*time.Second)

	p := newTestProduct(t, "p1", "Tee", domain.CategoryMen)
	p.Category = "unisex"

	err := repo.Create(context.Background(), p)
	verr, ok := domain.AsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.True(t, hasField(verr, "category"))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestProductRepository_ImportReplacesAll(t *testing.T) {
	resetProducts(t)
	repo := NewProductRepository(testDB, time.Second, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestProduct(t, "old", "Old", domain.CategoryMen)))

	n, err := repo.Import(ctx, []*domain.Product{
		newTestProduct(t, "n1", "New one", domain.CategoryWomen),
		newTestProduct(t, "n2", "New two", domain.CategoryKidsGirls),
	}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := repo.List(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"n1", "n2"}, ids(all))
}

func TestProductRepository_ImportIsAllOrNothing(t *testing.T) {
	resetProducts(t)
	repo := NewProductRepository(testDB, time.Second, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestProduct(t, "keep", "Keep", domain.CategoryMen)))

	// the duplicate id fails the insert after the clear already ran
	_, err := repo.Import(ctx, []*domain.Product{
		newTestProduct(t, "x", "X", domain.CategoryWomen),
		newTestProduct(t, "x", "X again", domain.CategoryWomen),
	}, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateProduct))

	all, err := repo.List(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, ids(all), "failed import leaves the store untouched")
}

func TestProductRepository_ImportWithoutClearRejectsCollisions(t *testing.T) {
	resetProducts(t)
	repo := NewProductRepository(testDB, time.Second, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestProduct(t, "p1", "Tee", domain.CategoryMen)))

	_, err := repo.Import(ctx, []*domain.Product{newTestProduct(t, "p1", "Tee v2", domain.CategoryMen)}, false)
	assert.ErrorIs(t, err, ErrDuplicateProduct)

	n, err := repo.Import(ctx, []*domain.Product{newTestProduct(t, "p2", "Polo", domain.CategoryMen)}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestProductRepository_ExpiredContextIsUnavailable(t *testing.T) {
	repo := NewProductRepository(testDB, time.Second, 30*time.Second)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := repo.List(ctx, ProductFilter{})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestProductRepository_ImportHasItsOwnDeadline(t *testing.T) {
	resetProducts(t)
	repo := NewProductRepository(testDB, time.Nanosecond, 30*time.Second)
	ctx := context.Background()

	batch := make([]*domain.Product, 50)
	for i := range batch {
		batch[i] = newTestProduct(t, fmt.Sprintf("b%02d", i), "Lote", domain.CategoryWomen)
	}

	n, err := repo.Import(ctx, batch, true)
	require.NoError(t, err)
	assert.Equal(t, len(batch), n)

	_, err = repo.Count(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	count, err := NewProductRepository(testDB, time.Second, 0).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(batch), count)
}

package service

import (
	"context"
	"fmt"
	"time"

	"majoe-store/internal/domain"
	"majoe-store/internal/repository"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// Snapshot is the exported form of the whole catalog
type Snapshot struct {
	Timestamp time.Time         `json:"timestamp"`
	Count     int               `json:"count"`
	Products  []*domain.Product `json:"products"`
}

// ProductService defines the interface for catalog business logic. Every
// write path runs its input through domain.ParseProduct before it reaches
// the repository.
type ProductService interface {
	List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Add(ctx context.Context, raw map[string]any) (*domain.Product, error)
	Update(ctx context.Context, id string, patch map[string]any) (*domain.Product, error)
	Delete(ctx context.Context, id string) (bool, error)
	ExportAll(ctx context.Context) (*Snapshot, error)
	ImportAll(ctx context.Context, payload any, clearExisting bool) (int, error)
	SeedIfEmpty(ctx context.Context, records []map[string]any) (int, error)
}

type productService struct {
	productRepo repository.ProductRepository
	now         func() time.Time
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{
		productRepo: productRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, domain.NewValidationError("category", "must be one of men, women, kids-boys, kids-girls")
	}

	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *productService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// Add validates raw and stores it under a freshly generated id. Any id in
// raw is discarded.
func (s *productService) Add(ctx context.Context, raw map[string]any) (*domain.Product, error) {
	in := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		in[k] = v
	}
	delete(in, "_id")
	in["id"] = uuid.New().String()

	product, err := domain.ParseProduct(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.productRepo.Create(ctx, &product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

// Update merges patch onto the stored product and re-validates the result
func (s *productService) Update(ctx context.Context, id string, patch map[string]any) (*domain.Product, error) {
	existing, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	product, err := domain.MergeProduct(*existing, patch)
	if err != nil {
		return nil, err
	}
	product.UpdatedAt = s.now()

	if err := s.productRepo.Update(ctx, &product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &product, nil
}

func (s *productService) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	return removed, nil
}

func (s *productService) ExportAll(ctx context.Context) (*Snapshot, error) {
	products, err := s.productRepo.List(ctx, repository.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to export products: %w", err)
	}

	return &Snapshot{
		Timestamp: s.now(),
		Count:     len(products),
		Products:  products,
	}, nil
}

// ImportAll validates every element of payload and only then hands the
// batch to the repository. One invalid element rejects the whole import.
func (s *productService) ImportAll(ctx context.Context, payload any, clearExisting bool) (int, error) {
	records, err := importRecords(payload)
	if err != nil {
		return 0, err
	}

	products := make([]*domain.Product, 0, len(records))
	verr := &domain.ValidationError{}
	seen := make(map[string]int, len(records))
	now := s.now()

	for i, raw := range records {
		prefix := fmt.Sprintf("products[%d]", i)

		rec, ok := raw.(map[string]any)
		if !ok {
			verr.Fields = append(verr.Fields, domain.FieldError{Field: prefix, Message: "must be an object"})
			continue
		}

		in := make(map[string]any, len(rec))
		for k, v := range rec {
			in[k] = v
		}
		if id := cast.ToString(in["id"]); id == "" {
			in["id"] = uuid.New().String()
		}

		product, err := domain.ParseProduct(in)
		if err != nil {
			fieldErr, ok := domain.AsValidationError(err)
			if !ok {
				return 0, err
			}
			verr.Fields = append(verr.Fields, fieldErr.WithPrefix(prefix).Fields...)
			continue
		}

		if j, dup := seen[product.ID]; dup {
			verr.Fields = append(verr.Fields, domain.FieldError{
				Field:   prefix + ".id",
				Message: fmt.Sprintf("duplicates products[%d]", j),
			})
			continue
		}
		seen[product.ID] = i

		product.CreatedAt = timestampOr(rec["createdAt"], now)
		product.UpdatedAt = timestampOr(rec["updatedAt"], now)
		products = append(products, &product)
	}

	if len(verr.Fields) > 0 {
		return 0, verr
	}

	n, err := s.productRepo.Import(ctx, products, clearExisting)
	if err != nil {
		return 0, fmt.Errorf("failed to import products: %w", err)
	}
	return n, nil
}

// SeedIfEmpty imports records once, when the catalog holds no products
func (s *productService) SeedIfEmpty(ctx context.Context, records []map[string]any) (int, error) {
	count, err := s.productRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	payload := make([]any, len(records))
	for i, rec := range records {
		payload[i] = rec
	}
	return s.ImportAll(ctx, payload, false)
}

// importRecords accepts either a bare array or an export envelope with a
// products array.
func importRecords(payload any) ([]any, error) {
	switch v := payload.(type) {
	case []any:
		return v, nil
	case []map[string]any:
		out := make([]any, len(v))
		for i, rec := range v {
			out[i] = rec
		}
		return out, nil
	case map[string]any:
		if inner, ok := v["products"]; ok {
			return importRecords(inner)
		}
	}
	return nil, domain.NewValidationError("products", "must be an array")
}

func timestampOr(v any, fallback time.Time) time.Time {
	if v == nil {
		return fallback
	}
	ts, err := cast.ToTimeE(v)
	if err != nil || ts.IsZero() {
		return fallback
	}
	return ts.UTC()
}

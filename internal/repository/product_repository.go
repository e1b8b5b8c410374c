package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"majoe-store/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrDuplicateProduct = errors.New("product already exists")
	ErrStoreUnavailable = errors.New("product store unavailable")
)

const (
	pgUniqueViolation  = "23505"
	pgCheckViolation   = "23514"
	pgNotNullViolation = "23502"

	defaultQueryTimeout  = 5 * time.Second
	defaultImportTimeout = time.Minute
)

// ProductFilter narrows a product listing. All set predicates are ANDed;
// the boolean flags only constrain the result when true.
type ProductFilter struct {
	Category   domain.Category
	Featured   bool
	NewProduct bool
	OnSale     bool
	Query      string
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	Count(ctx context.Context) (int, error)
	Import(ctx context.Context, products []*domain.Product, clearExisting bool) (int, error)
}

type productRepository struct {
	db            *sql.DB
	timeout       time.Duration
	importTimeout time.Duration
}

// NewProductRepository creates a new instance of ProductRepository. Every
// call is bounded by timeout except Import, which runs the whole batch
// under importTimeout. Non-positive values use the defaults.
func NewProductRepository(db *sql.DB, timeout, importTimeout time.Duration) ProductRepository {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	if importTimeout <= 0 {
		importTimeout = defaultImportTimeout
	}
	return &productRepository{db: db, timeout: timeout, importTimeout: importTimeout}
}

const productColumns = `id, name, description, price, original_price, category, subcategory,
	images, sizes, colors, stock, featured, new_product, on_sale, created_at, updated_at`

const insertProductQuery = `
	INSERT INTO products (` + productColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10::jsonb, $11, $12, $13, $14, $15, $16)
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := insertProduct(ctx, r.db, product); err != nil {
		return classify("create product", err)
	}
	return nil
}

func insertProduct(ctx context.Context, db execer, product *domain.Product) error {
	images, sizes, colors, err := encodeDocuments(product)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(
		ctx,
		insertProductQuery,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.OriginalPrice,
		string(product.Category),
		product.Subcategory,
		images,
		sizes,
		colors,
		product.Stock,
		product.Featured,
		product.NewProduct,
		product.OnSale,
		product.CreatedAt,
		product.UpdatedAt,
	)
	return err
}

// Update replaces every mutable column of an existing product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	images, sizes, colors, err := encodeDocuments(product)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, original_price = $5, category = $6,
		    subcategory = $7, images = $8::jsonb, sizes = $9::jsonb, colors = $10::jsonb,
		    stock = $11, featured = $12, new_product = $13, on_sale = $14, updated_at = $15
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.OriginalPrice,
		string(product.Category),
		product.Subcategory,
		images,
		sizes,
		colors,
		product.Stock,
		product.Featured,
		product.NewProduct,
		product.OnSale,
		product.UpdatedAt,
	)
	if err != nil {
		return classify("update product", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product and reports whether a row was actually removed
func (r *productRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, classify("delete product", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// FindByID retrieves a product by its id
func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, classify("find product by ID", err)
	}

	return product, nil
}

// List retrieves the products matching filter in insertion order
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	conditions := []string{}
	args := []interface{}{}

	if filter.Category != "" {
		args = append(args, string(filter.Category))
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Featured {
		conditions = append(conditions, "featured")
	}
	if filter.NewProduct {
		conditions = append(conditions, "new_product")
	}
	if filter.OnSale {
		conditions = append(conditions, "on_sale")
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR subcategory ILIKE $%d OR description ILIKE $%d)", n, n, n))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY position ASC`, productColumns, whereClause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list products", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, classify("scan product", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, classify("iterate products", err)
	}

	return products, nil
}

// Count returns the number of stored products
func (r *productRepository) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return 0, classify("count products", err)
	}
	return total, nil
}

// Import writes products in one transaction, first deleting every stored
// product when clearExisting is set. Any failure rolls back the batch.
func (r *productRepository) Import(ctx context.Context, products []*domain.Product, clearExisting bool) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.importTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, classify("begin import", err)
	}
	defer tx.Rollback()

	if clearExisting {
		if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
			return 0, classify("clear products", err)
		}
	}

	for i, product := range products {
		if err := insertProduct(ctx, tx, product); err != nil {
			return 0, classify(fmt.Sprintf("import product %d (%s)", i, product.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, classify("commit import", err)
	}

	return len(products), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		product               domain.Product
		category              string
		originalPrice         sql.NullFloat64
		images, sizes, colors []byte
	)

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&originalPrice,
		&category,
		&product.Subcategory,
		&images,
		&sizes,
		&colors,
		&product.Stock,
		&product.Featured,
		&product.NewProduct,
		&product.OnSale,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.Category = domain.Category(category)
	if originalPrice.Valid {
		v := originalPrice.Float64
		product.OriginalPrice = &v
	}

	product.Images = []string{}
	product.Sizes = []domain.Size{}
	product.Colors = []domain.Color{}
	if err := json.Unmarshal(images, &product.Images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}
	if err := json.Unmarshal(sizes, &product.Sizes); err != nil {
		return nil, fmt.Errorf("failed to decode sizes: %w", err)
	}
	if err := json.Unmarshal(colors, &product.Colors); err != nil {
		return nil, fmt.Errorf("failed to decode colors: %w", err)
	}

	return &product, nil
}

func encodeDocuments(product *domain.Product) (images, sizes, colors string, err error) {
	encode := func(v any, empty bool) (string, error) {
		if empty {
			return "[]", nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	if images, err = encode(product.Images, len(product.Images) == 0); err != nil {
		return "", "", "", fmt.Errorf("failed to encode images: %w", err)
	}
	if sizes, err = encode(product.Sizes, len(product.Sizes) == 0); err != nil {
		return "", "", "", fmt.Errorf("failed to encode sizes: %w", err)
	}
	if colors, err = encode(product.Colors, len(product.Colors) == 0); err != nil {
		return "", "", "", fmt.Errorf("failed to encode colors: %w", err)
	}
	return images, sizes, colors, nil
}

// classify wraps a driver error with the repository error kind it maps to
func classify(action string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("failed to %s: %w: %w", action, ErrDuplicateProduct, err)
		case pgCheckViolation, pgNotNullViolation:
			return domain.NewValidationError(constraintField(pgErr), "violates store constraint "+pgErr.ConstraintName)
		}
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.As(err, &connErr) ||
		errors.As(err, &netErr) {
		return fmt.Errorf("failed to %s: %w: %w", action, ErrStoreUnavailable, err)
	}

	return fmt.Errorf("failed to %s: %w", action, err)
}

// constraintField maps a constraint like "products_category_check" or a
// not-null column back to the product field name.
func constraintField(pgErr *pgconn.PgError) string {
	column := pgErr.ColumnName
	if column == "" {
		column = strings.TrimSuffix(strings.TrimPrefix(pgErr.ConstraintName, "products_"), "_check")
	}
	switch column {
	case "original_price":
		return "originalPrice"
	case "new_product":
		return "newProduct"
	case "on_sale":
		return "onSale"
	case "":
		return "product"
	}
	return column
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/pkg/domain"
)

const productColumns = `id, name, brand, description, price, image_url, category_id, stock, featured, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// ProductsRepository handles product persistence.
type ProductsRepository struct {
	db *sql.DB
}

// NewProductsRepository creates a new products repository.
func NewProductsRepository(db *sql.DB) *ProductsRepository {
	return &ProductsRepository{db: db}
}

// List returns every product, newest first.
func (r *ProductsRepository) List(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`
	return r.query(ctx, query)
}

// ListFeatured returns products flagged as featured.
func (r *ProductsRepository) ListFeatured(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE featured ORDER BY created_at DESC`
	return r.query(ctx, query)
}

// ListByCategory returns products within a category.
func (r *ProductsRepository) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE category_id = $1 ORDER BY name`
	return r.query(ctx, query, categoryID)
}

// Search matches name, brand or description case-insensitively.
func (r *ProductsRepository) Search(ctx context.Context, term string) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE name ILIKE $1 OR brand ILIKE $1 OR description ILIKE $1
		ORDER BY name
	`
	return r.query(ctx, query, "%"+escapeLike(term)+"%")
}

// GetByID retrieves a product by ID.
func (r *ProductsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Create inserts a product.
func (r *ProductsRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, name, brand, description, price, image_url, category_id, stock, featured, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Brand, p.Description, p.Price, p.ImageURL,
		p.CategoryID, p.Stock, p.Featured, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update applies a partial update and returns the stored product.
func (r *ProductsRepository) Update(ctx context.Context, id uuid.UUID, u domain.ProductUpdate) (*domain.Product, error) {
	query := `
		UPDATE products
		SET name = COALESCE($2, name),
		    brand = COALESCE($3, brand),
		    description = COALESCE($4, description),
		    price = COALESCE($5::numeric, price),
		    image_url = COALESCE($6, image_url),
		    category_id = COALESCE($7, category_id),
		    stock = COALESCE($8, stock),
		    featured = COALESCE($9, featured)
		WHERE id = $1
		RETURNING ` + productColumns
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id,
		u.Name, u.Brand, u.Description, u.Price, u.ImageURL, u.CategoryID, u.Stock, u.Featured,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// Delete removes a product. Products referenced by an order are kept.
func (r *ProductsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return domain.NewValidationError("id", "Product has been ordered and cannot be deleted")
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return expectOneRow(result, domain.ErrProductNotFound)
}

func (r *ProductsRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Brand, &p.Description, &p.Price, &p.ImageURL,
		&p.CategoryID, &p.Stock, &p.Featured, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

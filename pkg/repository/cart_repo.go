package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tendant/simple-storefront/pkg/domain"
)

// errNoOwner is returned when a cart operation is attempted without an owner.
var errNoOwner = errors.New("cart owner is required")

// CartRepository handles cart item persistence.
type CartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new cart repository.
func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

// ownerFilter returns the WHERE fragment selecting the owner's rows using
// placeholder $n, together with its argument.
func ownerFilter(owner domain.Owner, n int) (string, any, error) {
	if id, ok := owner.UserID(); ok {
		return fmt.Sprintf("user_id = $%d", n), id, nil
	}
	if id, ok := owner.SessionID(); ok {
		return fmt.Sprintf("session_id = $%d", n), id, nil
	}
	return "", nil, errNoOwner
}

// Lines returns the owner's cart items joined with their products.
func (r *CartRepository) Lines(ctx context.Context, owner domain.Owner) ([]domain.CartLine, error) {
	filter, arg, err := ownerFilter(owner, 1)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT c.id, c.product_id, c.quantity,
		       p.id, p.name, p.brand, p.description, p.price, p.image_url,
		       p.category_id, p.stock, p.featured, p.created_at
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.` + filter + `
		ORDER BY c.created_at, c.id
	`
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var l domain.CartLine
		p := &l.Product
		err := rows.Scan(
			&l.ID, &l.ProductID, &l.Quantity,
			&p.ID, &p.Name, &p.Brand, &p.Description, &p.Price, &p.ImageURL,
			&p.CategoryID, &p.Stock, &p.Featured, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		l.Owner = owner
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Add inserts a cart row or increments the quantity of the existing row for
// the same owner and product. The partial unique indexes make this atomic.
// The summed quantity saturates at domain.MaxCartQuantity.
func (r *CartRepository) Add(ctx context.Context, owner domain.Owner, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	var conflict string
	switch {
	case owner.IsZero():
		return nil, errNoOwner
	case isUserOwner(owner):
		conflict = `ON CONFLICT (user_id, product_id) WHERE user_id IS NOT NULL`
	default:
		conflict = `ON CONFLICT (session_id, product_id) WHERE session_id IS NOT NULL`
	}
	sessionID, userID := owner.Columns()

	query := `
		INSERT INTO cart_items (id, session_id, user_id, product_id, quantity)
		VALUES ($1, $2, $3, $4, $5)
		` + conflict + `
		DO UPDATE SET quantity = LEAST(cart_items.quantity + EXCLUDED.quantity, $6)
		RETURNING id, product_id, quantity
	`
	item := &domain.CartItem{Owner: owner}
	err := r.db.QueryRowContext(ctx, query, uuid.New(), sessionID, userID, productID, quantity, domain.MaxCartQuantity).
		Scan(&item.ID, &item.ProductID, &item.Quantity)
	if err != nil {
		return nil, fmt.Errorf("upsert cart item: %w", err)
	}
	return item, nil
}

// SetQuantity updates a row owned by owner.
func (r *CartRepository) SetQuantity(ctx context.Context, owner domain.Owner, itemID uuid.UUID, quantity int) (*domain.CartItem, error) {
	filter, arg, err := ownerFilter(owner, 3)
	if err != nil {
		return nil, err
	}
	query := `
		UPDATE cart_items
		SET quantity = $2
		WHERE id = $1 AND ` + filter + `
		RETURNING id, product_id, quantity
	`
	item := &domain.CartItem{Owner: owner}
	err = r.db.QueryRowContext(ctx, query, itemID, quantity, arg).Scan(&item.ID, &item.ProductID, &item.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCartItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return item, nil
}

// Remove deletes a row owned by owner.
func (r *CartRepository) Remove(ctx context.Context, owner domain.Owner, itemID uuid.UUID) error {
	filter, arg, err := ownerFilter(owner, 2)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1 AND `+filter, itemID, arg)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return expectOneRow(result, domain.ErrCartItemNotFound)
}

// Clear deletes every row of the owner's cart.
func (r *CartRepository) Clear(ctx context.Context, owner domain.Owner) error {
	filter, arg, err := ownerFilter(owner, 1)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE `+filter, arg); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// deleteCartItems removes exactly the listed rows of the owner's cart.
func deleteCartItems(ctx context.Context, q DBTX, owner domain.Owner, ids []uuid.UUID) (int64, error) {
	filter, arg, err := ownerFilter(owner, 2)
	if err != nil {
		return 0, err
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	result, err := q.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = ANY($1::uuid[]) AND `+filter,
		pq.Array(strIDs), arg,
	)
	if err != nil {
		return 0, fmt.Errorf("delete cart items: %w", err)
	}
	return result.RowsAffected()
}

func isUserOwner(owner domain.Owner) bool {
	_, ok := owner.UserID()
	return ok
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/pkg/domain"
)

const orderColumns = `id, user_id, email, name, address, city, postal_code, country, phone,
	total, status, delivery_status, tracking_number, estimated_delivery_date,
	delivery_notes, stripe_payment_id, created_at, updated_at`

// OrdersRepository handles order persistence.
type OrdersRepository struct {
	db *sql.DB
}

// NewOrdersRepository creates a new orders repository.
func NewOrdersRepository(db *sql.DB) *OrdersRepository {
	return &OrdersRepository{db: db}
}

// Place stores the order and its items and removes the consumed cart rows,
// all in one transaction. If any of cartItemIDs is already gone the whole
// transaction is rolled back with domain.ErrEmptyCart, so one cart cannot be
// checked out twice.
func (r *OrdersRepository) Place(ctx context.Context, order *domain.Order, items []domain.OrderItem, owner domain.Owner, cartItemIDs []uuid.UUID) error {
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO orders (id, user_id, email, name, address, city, postal_code, country, phone,
			                    total, status, delivery_status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`
		_, err := tx.ExecContext(ctx, query,
			order.ID, order.UserID, order.Email, order.Name, order.Address, order.City,
			order.PostalCode, order.Country, order.Phone, order.Total,
			order.Status, order.DeliveryStatus, order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		itemQuery := `
			INSERT INTO order_items (id, order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5)
		`
		for _, item := range items {
			if _, err := tx.ExecContext(ctx, itemQuery,
				item.ID, item.OrderID, item.ProductID, item.Quantity, item.Price,
			); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		deleted, err := deleteCartItems(ctx, tx, owner, cartItemIDs)
		if err != nil {
			return err
		}
		if deleted != int64(len(cartItemIDs)) {
			return domain.ErrEmptyCart
		}
		return nil
	})
}

// GetByID retrieves an order by ID.
func (r *OrdersRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrderRow(r.db.QueryRowContext(ctx, query, id))
}

// UpdateStatus sets the order status and returns the updated order.
func (r *OrdersRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, at time.Time) (*domain.Order, error) {
	query := `
		UPDATE orders
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + orderColumns
	return scanOrderRow(r.db.QueryRowContext(ctx, query, id, status, at))
}

// UpdateDelivery applies the non-nil fields of u and returns the updated order.
func (r *OrdersRepository) UpdateDelivery(ctx context.Context, id uuid.UUID, u domain.DeliveryUpdate, at time.Time) (*domain.Order, error) {
	query := `
		UPDATE orders
		SET delivery_status = COALESCE($2, delivery_status),
		    tracking_number = COALESCE($3, tracking_number),
		    estimated_delivery_date = COALESCE($4, estimated_delivery_date),
		    delivery_notes = COALESCE($5, delivery_notes),
		    updated_at = $6
		WHERE id = $1
		RETURNING ` + orderColumns
	return scanOrderRow(r.db.QueryRowContext(ctx, query, id,
		u.DeliveryStatus, u.TrackingNumber, u.EstimatedDeliveryDate, u.DeliveryNotes, at,
	))
}

// ListAll returns every order, newest first.
func (r *OrdersRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.list(ctx, query)
}

// ListByUser returns a user's orders, newest first.
func (r *OrdersRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// ListByStatus returns orders in a status, newest first.
func (r *OrdersRepository) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, status)
}

// ListCreatedBetween returns orders created in [from, to), newest first.
func (r *OrdersRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, from, to)
}

// Items returns an order's items joined with product name and image.
func (r *OrdersRepository) Items(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItemDetail, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price,
		       COALESCE(p.name, ''), COALESCE(p.image_url, '')
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItemDetail{}
	for rows.Next() {
		var d domain.OrderItemDetail
		if err := rows.Scan(
			&d.ID, &d.OrderID, &d.ProductID, &d.Quantity, &d.Price,
			&d.ProductName, &d.ProductImage,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// StatusTotals returns the order count and summed totals per status.
func (r *OrdersRepository) StatusTotals(ctx context.Context) ([]domain.StatusTotal, error) {
	query := `
		SELECT status, COUNT(*), COALESCE(SUM(total), 0)::text
		FROM orders
		GROUP BY status
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query order stats: %w", err)
	}
	defer rows.Close()

	var totals []domain.StatusTotal
	for rows.Next() {
		var t domain.StatusTotal
		if err := rows.Scan(&t.Status, &t.Count, &t.Total); err != nil {
			return nil, fmt.Errorf("scan order stats: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *OrdersRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanOrderRow(row *sql.Row) (*domain.Order, error) {
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return o, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(
		&o.ID, &o.UserID, &o.Email, &o.Name, &o.Address, &o.City, &o.PostalCode,
		&o.Country, &o.Phone, &o.Total, &o.Status, &o.DeliveryStatus,
		&o.TrackingNumber, &o.EstimatedDeliveryDate, &o.DeliveryNotes,
		&o.StripePaymentID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

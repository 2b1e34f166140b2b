// Package cart manages shopping carts owned by a guest session or a user.
package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/pkg/domain"
)

// MaxQuantity caps a single cart line. Repeated adds saturate at it.
const MaxQuantity = domain.MaxCartQuantity

// Store is the cart persistence. *repository.CartRepository implements it.
type Store interface {
	Lines(ctx context.Context, owner domain.Owner) ([]domain.CartLine, error)
	Add(ctx context.Context, owner domain.Owner, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	SetQuantity(ctx context.Context, owner domain.Owner, itemID uuid.UUID, quantity int) (*domain.CartItem, error)
	Remove(ctx context.Context, owner domain.Owner, itemID uuid.UUID) error
	Clear(ctx context.Context, owner domain.Owner) error
}

// ProductLookup checks that a product exists before it is added.
type ProductLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

// Service manages the lines of guest and user carts.
type Service struct {
	store    Store
	products ProductLookup
}

// NewService creates a new cart service.
func NewService(store Store, products ProductLookup) *Service {
	return &Service{store: store, products: products}
}

// Lines returns the owner's cart joined with current product data.
func (s *Service) Lines(ctx context.Context, owner domain.Owner) ([]domain.CartLine, error) {
	if owner.IsZero() {
		return []domain.CartLine{}, nil
	}
	lines, err := s.store.Lines(ctx, owner)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return lines, nil
}

// Add puts quantity units of a product in the cart. Adding a product that is
// already there increments the existing line.
func (s *Service) Add(ctx context.Context, owner domain.Owner, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if owner.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.store.Add(ctx, owner, productID, quantity)
}

// SetQuantity replaces a line's quantity. Zero or less removes the line and
// returns a nil item.
func (s *Service) SetQuantity(ctx context.Context, owner domain.Owner, itemID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if owner.IsZero() {
		return nil, domain.ErrCartItemNotFound
	}
	if quantity <= 0 {
		return nil, s.store.Remove(ctx, owner, itemID)
	}
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}
	return s.store.SetQuantity(ctx, owner, itemID, quantity)
}

// Remove deletes one line of the owner's cart.
func (s *Service) Remove(ctx context.Context, owner domain.Owner, itemID uuid.UUID) error {
	if owner.IsZero() {
		return domain.ErrCartItemNotFound
	}
	return s.store.Remove(ctx, owner, itemID)
}

// Clear empties the owner's cart.
func (s *Service) Clear(ctx context.Context, owner domain.Owner) error {
	if owner.IsZero() {
		return nil
	}
	return s.store.Clear(ctx, owner)
}

func checkQuantity(q int) error {
	if q < 1 {
		return domain.NewValidationError("quantity", "quantity must be at least 1")
	}
	if q > MaxQuantity {
		return domain.NewValidationError("quantity", "quantity is too large")
	}
	return nil
}

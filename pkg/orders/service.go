// Package orders implements checkout and the admin order lifecycle.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tendant/simple-storefront/pkg/domain"
)

// Store is the order persistence the service depends on.
// *repository.OrdersRepository implements it.
type Store interface {
	Place(ctx context.Context, order *domain.Order, items []domain.OrderItem, owner domain.Owner, cartItemIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, at time.Time) (*domain.Order, error)
	UpdateDelivery(ctx context.Context, id uuid.UUID, u domain.DeliveryUpdate, at time.Time) (*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*domain.Order, error)
	Items(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItemDetail, error)
	StatusTotals(ctx context.Context) ([]domain.StatusTotal, error)
}

// CartReader returns the cart snapshot that checkout consumes.
type CartReader interface {
	Lines(ctx context.Context, owner domain.Owner) ([]domain.CartLine, error)
}

// Notifier receives order lifecycle events after they are committed.
type Notifier interface {
	NotifyNewOrder(orderID uuid.UUID)
	NotifyOrderUpdate(orderID uuid.UUID)
}

// Viewer is who is asking for an order.
type Viewer struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// Service is the order lifecycle manager.
type Service struct {
	orders   Store
	cart     CartReader
	notifier Notifier
	location *time.Location
	validate *validator.Validate
	now      func() time.Time
}

// NewService creates an order service. Monthly reports use loc for month
// boundaries; nil means UTC.
func NewService(orders Store, cart CartReader, notifier Notifier, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		orders:   orders,
		cart:     cart,
		notifier: notifier,
		location: loc,
		validate: validator.New(),
		now:      time.Now,
	}
}

// PlaceOrder turns the owner's cart into an order. Totals and item prices
// are taken from the products at this moment and never change afterwards.
func (s *Service) PlaceOrder(ctx context.Context, info domain.ShippingInfo, owner domain.Owner) (*domain.Order, error) {
	if owner.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	info = trimShipping(info)
	if err := s.validate.Struct(info); err != nil {
		return nil, shippingError(err)
	}

	lines, err := s.cart.Lines(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	now := s.now()
	order := &domain.Order{
		ID:             uuid.New(),
		Email:          strings.ToLower(info.Email),
		Name:           info.Name,
		Address:        info.Address,
		City:           info.City,
		PostalCode:     info.PostalCode,
		Country:        info.Country,
		Phone:          info.Phone,
		Status:         domain.OrderStatusPending,
		DeliveryStatus: domain.DeliveryStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if id, ok := owner.UserID(); ok {
		order.UserID = &id
	}

	total := decimal.Zero
	items := make([]domain.OrderItem, 0, len(lines))
	cartIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		price, err := decimal.NewFromString(line.Product.Price)
		if err != nil {
			return nil, fmt.Errorf("product %s has invalid price %q: %w", line.ProductID, line.Product.Price, err)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, domain.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     price.StringFixed(2),
		})
		cartIDs = append(cartIDs, line.ID)
	}
	order.Total = total.StringFixed(2)

	if err := s.orders.Place(ctx, order, items, owner, cartIDs); err != nil {
		return nil, err
	}

	s.notifier.NotifyNewOrder(order.ID)
	return order, nil
}

// UpdateOrderStatus sets the order status. Any recognised status may follow
// any other.
func (s *Service) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	order, err := s.orders.UpdateStatus(ctx, id, status, s.now())
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyOrderUpdate(order.ID)
	return order, nil
}

// UpdateDeliveryStatus applies the supplied delivery fields.
func (s *Service) UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, u domain.DeliveryUpdate) (*domain.Order, error) {
	if u.DeliveryStatus != nil && !u.DeliveryStatus.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	order, err := s.orders.UpdateDelivery(ctx, id, u, s.now())
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyOrderUpdate(order.ID)
	return order, nil
}

// GetOrder returns an order to its owner or an admin.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID, viewer Viewer) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.IsAdmin && (order.UserID == nil || *order.UserID != viewer.UserID) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

// ListUserOrders returns a user's orders to that user or an admin.
func (s *Service) ListUserOrders(ctx context.Context, userID uuid.UUID, viewer Viewer) ([]*domain.Order, error) {
	if !viewer.IsAdmin && viewer.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return s.orders.ListByUser(ctx, userID)
}

// ListAllOrders returns every order, newest first.
func (s *Service) ListAllOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.orders.ListAll(ctx)
}

// ListByStatus returns orders with the given status.
func (s *Service) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	return s.orders.ListByStatus(ctx, status)
}

// ListItems returns an order's items with product details.
func (s *Service) ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItemDetail, error) {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orders.Items(ctx, orderID)
}

// Stats aggregates all orders. Revenue excludes cancelled orders.
func (s *Service) Stats(ctx context.Context) (*domain.OrderStats, error) {
	totals, err := s.orders.StatusTotals(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.OrderStats{OrdersByStatus: emptyCounts()}
	revenue := decimal.Zero
	for _, t := range totals {
		stats.TotalOrders += t.Count
		stats.OrdersByStatus[t.Status] += t.Count
		if t.Status == domain.OrderStatusCancelled {
			continue
		}
		sum, err := decimal.NewFromString(t.Total)
		if err != nil {
			return nil, fmt.Errorf("invalid revenue %q for status %s: %w", t.Total, t.Status, err)
		}
		revenue = revenue.Add(sum)
	}
	stats.TotalRevenue = revenue.StringFixed(2)
	return stats, nil
}

// MonthlyReport covers orders created in one calendar month. Zero year or
// month means the current one.
func (s *Service) MonthlyReport(ctx context.Context, year, month int) (*domain.MonthlyReport, error) {
	now := s.now().In(s.location)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if year < 1 || year > 9999 {
		return nil, domain.NewValidationError("year", "year is out of range")
	}
	if month < 1 || month > 12 {
		return nil, domain.NewValidationError("month", "month must be between 1 and 12")
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.location)
	end := start.AddDate(0, 1, 0)

	orders, err := s.orders.ListCreatedBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	report := &domain.MonthlyReport{
		Year:           year,
		Month:          month,
		TotalOrders:    len(orders),
		OrdersByStatus: emptyCounts(),
		Orders:         orders,
	}
	revenue := decimal.Zero
	for _, o := range orders {
		report.OrdersByStatus[o.Status]++
		if o.Status == domain.OrderStatusCancelled {
			continue
		}
		total, err := decimal.NewFromString(o.Total)
		if err != nil {
			return nil, fmt.Errorf("order %s has invalid total %q: %w", o.ID, o.Total, err)
		}
		revenue = revenue.Add(total)
	}
	report.TotalRevenue = revenue.StringFixed(2)
	return report, nil
}

func emptyCounts() domain.StatusCounts {
	counts := make(domain.StatusCounts, len(domain.OrderStatuses))
	for _, st := range domain.OrderStatuses {
		counts[st] = 0
	}
	return counts
}

// trimShipping strips surrounding whitespace so blank fields fail the
// required checks. A blank phone becomes nil.
func trimShipping(info domain.ShippingInfo) domain.ShippingInfo {
	info.Email = strings.TrimSpace(info.Email)
	info.Name = strings.TrimSpace(info.Name)
	info.Address = strings.TrimSpace(info.Address)
	info.City = strings.TrimSpace(info.City)
	info.PostalCode = strings.TrimSpace(info.PostalCode)
	info.Country = strings.TrimSpace(info.Country)
	if info.Phone != nil {
		phone := strings.TrimSpace(*info.Phone)
		if phone == "" {
			info.Phone = nil
		} else {
			info.Phone = &phone
		}
	}
	return info
}

func shippingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := jsonFieldName(fe.Field())
		switch fe.Tag() {
		case "required":
			return domain.NewValidationError(field, field+" is required")
		case "email":
			return domain.NewValidationError(field, "Invalid email address")
		default:
			return domain.NewValidationError(field, field+" is invalid")
		}
	}
	return domain.NewValidationError("", "invalid shipping information")
}

func jsonFieldName(goName string) string {
	if goName == "" {
		return goName
	}
	return strings.ToLower(goName[:1]) + goName[1:]
}

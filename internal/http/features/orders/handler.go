package orders

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/internal/http/features/common"
	"github.com/tendant/simple-storefront/internal/http/middleware"
	"github.com/tendant/simple-storefront/internal/httputil"
	"github.com/tendant/simple-storefront/pkg/domain"
	"github.com/tendant/simple-storefront/pkg/orders"
)

// Service is the shopper side of the order lifecycle. *orders.Service
// implements it.
type Service interface {
	PlaceOrder(ctx context.Context, info domain.ShippingInfo, owner domain.Owner) (*domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID, viewer orders.Viewer) (*domain.Order, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, viewer orders.Viewer) ([]*domain.Order, error)
}

// Handler handles checkout and order history endpoints.
type Handler struct {
	logger *slog.Logger
	orders Service
	users  middleware.UserLookup
}

// NewHandler creates a new orders handler.
func NewHandler(logger *slog.Logger, orders Service, users middleware.UserLookup) *Handler {
	return &Handler{
		logger: logger,
		orders: orders,
		users:  users,
	}
}

// Place checks out the caller's cart.
// POST /api/orders
func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	var info domain.ShippingInfo
	if err := httputil.DecodeJSON(r, &info); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}

	order, err := h.orders.PlaceOrder(r.Context(), info, middleware.GetCartOwner(r.Context()))
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	h.logger.Info("order placed", "order_id", order.ID, "total", order.Total)
	httputil.JSON(w, http.StatusOK, order)
}

// Get returns one order to its owner or an admin.
// GET /api/orders/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id", domain.ErrOrderNotFound)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	viewer, err := h.viewer(r)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id, viewer)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, order)
}

// ListForUser returns a user's orders to that user or an admin.
// GET /api/orders/user/{userId}
func (h *Handler) ListForUser(w http.ResponseWriter, r *http.Request) {
	viewer, err := h.viewer(r)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		// Nobody owns a malformed id, so only an admin may see its empty list.
		if !viewer.IsAdmin {
			common.WriteError(w, r, h.logger, domain.ErrForbidden)
			return
		}
		httputil.JSON(w, http.StatusOK, []*domain.Order{})
		return
	}

	list, err := h.orders.ListUserOrders(r.Context(), userID, viewer)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	if list == nil {
		list = []*domain.Order{}
	}
	httputil.JSON(w, http.StatusOK, list)
}

// viewer re-reads the caller so the admin flag comes from the store.
func (h *Handler) viewer(r *http.Request) (orders.Viewer, error) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		return orders.Viewer{}, domain.ErrUnauthorized
	}
	user, err := h.users.GetByID(r.Context(), p.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return orders.Viewer{UserID: p.UserID}, nil
	}
	if err != nil {
		return orders.Viewer{}, err
	}
	return orders.Viewer{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}

// RegisterRoutes registers order routes. cartOwner resolves the cart being
// checked out.
func (h *Handler) RegisterRoutes(r chi.Router, cartOwner func(http.Handler) http.Handler) {
	r.With(cartOwner).Post("/api/orders", h.Place)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/api/orders/{id}", h.Get)
		r.Get("/api/orders/user/{userId}", h.ListForUser)
	})
}

package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/internal/http/features/common"
	"github.com/tendant/simple-storefront/internal/httputil"
	"github.com/tendant/simple-storefront/pkg/domain"
)

// OrderManager is the back-office side of the order lifecycle.
// *orders.Service implements it.
type OrderManager interface {
	ListAllOrders(ctx context.Context) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, u domain.DeliveryUpdate) (*domain.Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItemDetail, error)
	Stats(ctx context.Context) (*domain.OrderStats, error)
	MonthlyReport(ctx context.Context, year, month int) (*domain.MonthlyReport, error)
}

// Handler handles admin order endpoints. Routes are mounted behind
// middleware.RequireAdmin.
type Handler struct {
	logger *slog.Logger
	orders OrderManager
}

// NewHandler creates a new admin handler.
func NewHandler(logger *slog.Logger, orders OrderManager) *Handler {
	return &Handler{
		logger: logger,
		orders: orders,
	}
}

// StatusRequest changes an order's status.
type StatusRequest struct {
	Status string `json:"status"`
}

// List returns every order, newest first.
// GET /api/admin/orders
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.ListAllOrders(r.Context())
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	writeOrders(w, list)
}

// ListByStatus returns orders in one status.
// GET /api/admin/orders/status/{status}
func (h *Handler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.ListByStatus(r.Context(), domain.OrderStatus(chi.URLParam(r, "status")))
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	writeOrders(w, list)
}

// Stats returns order counts and revenue.
// GET /api/admin/orders/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.Stats(r.Context())
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, stats)
}

// MonthlyReport summarises one calendar month.
// GET /api/admin/orders/monthly-report?year=2024&month=3
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	month, err := queryInt(r, "month")
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}

	report, err := h.orders.MonthlyReport(r.Context(), year, month)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	if report.Orders == nil {
		report.Orders = []*domain.Order{}
	}
	httputil.JSON(w, http.StatusOK, report)
}

// UpdateStatus sets an order's status.
// PATCH /api/admin/orders/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id", domain.ErrOrderNotFound)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	var req StatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	if req.Status == "" {
		httputil.Error(w, http.StatusBadRequest, "Status is required")
		return
	}

	order, err := h.orders.UpdateOrderStatus(r.Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	h.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	httputil.JSON(w, http.StatusOK, order)
}

// UpdateDelivery applies a partial delivery update.
// PATCH /api/admin/orders/{id}/delivery
func (h *Handler) UpdateDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id", domain.ErrOrderNotFound)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	var req domain.DeliveryUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	if req.IsEmpty() {
		httputil.Error(w, http.StatusBadRequest, "At least one delivery field is required")
		return
	}

	order, err := h.orders.UpdateDeliveryStatus(r.Context(), id, req)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, order)
}

// Items returns an order's line items.
// GET /api/admin/orders/{id}/items
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id", domain.ErrOrderNotFound)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	items, err := h.orders.ListItems(r.Context(), id)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	if items == nil {
		items = []domain.OrderItemDetail{}
	}
	httputil.JSON(w, http.StatusOK, items)
}

// RegisterRoutes registers admin order routes. requireAdmin guards all of them.
func (h *Handler) RegisterRoutes(r chi.Router, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/api/admin/orders", func(r chi.Router) {
		r.Use(requireAdmin)
		r.Get("/", h.List)
		r.Get("/stats", h.Stats)
		r.Get("/monthly-report", h.MonthlyReport)
		r.Get("/status/{status}", h.ListByStatus)
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Patch("/{id}/delivery", h.UpdateDelivery)
		r.Get("/{id}/items", h.Items)
	})
}

func writeOrders(w http.ResponseWriter, list []*domain.Order) {
	if list == nil {
		list = []*domain.Order{}
	}
	httputil.JSON(w, http.StatusOK, list)
}

// queryInt reads an optional positive integer. Absent means zero, which the
// report treats as "current".
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, domain.NewValidationError(name, name+" must be a positive number")
	}
	return v, nil
}

package cart

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/internal/http/features/common"
	"github.com/tendant/simple-storefront/internal/http/middleware"
	"github.com/tendant/simple-storefront/internal/httputil"
	"github.com/tendant/simple-storefront/pkg/domain"
)

// Service is the cart behaviour the handler needs. *cart.Service implements it.
type Service interface {
	Lines(ctx context.Context, owner domain.Owner) ([]domain.CartLine, error)
	Add(ctx context.Context, owner domain.Owner, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	SetQuantity(ctx context.Context, owner domain.Owner, itemID uuid.UUID, quantity int) (*domain.CartItem, error)
	Remove(ctx context.Context, owner domain.Owner, itemID uuid.UUID) error
}

// Handler handles cart endpoints. Every route expects middleware.CartOwner
// to have run.
type Handler struct {
	logger   *slog.Logger
	cart     Service
	validate *validator.Validate
}

// NewHandler creates a new cart handler.
func NewHandler(logger *slog.Logger, cart Service) *Handler {
	return &Handler{
		logger:   logger,
		cart:     cart,
		validate: validator.New(),
	}
}

// AddRequest represents an add-to-cart request. A missing quantity means one.
type AddRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  *int      `json:"quantity"`
}

// UpdateRequest sets a line's quantity.
type UpdateRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// SuccessResponse acknowledges a mutation.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// List returns the caller's cart.
// GET /api/cart
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	lines, err := h.cart.Lines(r.Context(), middleware.GetCartOwner(r.Context()))
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, lines)
}

// Add puts a product in the caller's cart.
// POST /api/cart
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "productId is required")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item, err := h.cart.Add(r.Context(), middleware.GetCartOwner(r.Context()), req.ProductID, quantity)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, item)
}

// Update changes a line's quantity. Zero or less removes the line.
// PATCH /api/cart/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id", domain.ErrCartItemNotFound)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	var req UpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "quantity is required")
		return
	}

	if _, err := h.cart.SetQuantity(r.Context(), middleware.GetCartOwner(r.Context()), id, *req.Quantity); err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// Remove deletes a line from the caller's cart.
// DELETE /api/cart/{id}
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id", domain.ErrCartItemNotFound)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.cart.Remove(r.Context(), middleware.GetCartOwner(r.Context()), id); err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// RegisterRoutes registers cart routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/cart", h.List)
	r.Post("/api/cart", h.Add)
	r.Patch("/api/cart/{id}", h.Update)
	r.Delete("/api/cart/{id}", h.Remove)
}

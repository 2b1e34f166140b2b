package me

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-storefront/internal/http/middleware"
	"github.com/tendant/simple-storefront/internal/httputil"
	"github.com/tendant/simple-storefront/pkg/domain"
)

// Handler handles the current-user endpoint.
type Handler struct {
	logger *slog.Logger
	users  middleware.UserLookup
}

// NewHandler creates a new me handler.
func NewHandler(logger *slog.Logger, users middleware.UserLookup) *Handler {
	return &Handler{
		logger: logger,
		users:  users,
	}
}

// UserResponse wraps the public profile.
type UserResponse struct {
	User domain.PublicUser `json:"user"`
}

// GetMe returns the signed-in user.
// GET /api/auth/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.users.GetByID(r.Context(), p.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			httputil.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("failed to load current user", "user_id", p.UserID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.JSON(w, http.StatusOK, UserResponse{User: user.Public()})
}

// RegisterRoutes registers the me route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/auth/me", h.GetMe)
}

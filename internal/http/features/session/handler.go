package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/internal/http/middleware"
	"github.com/tendant/simple-storefront/internal/httputil"
	"github.com/tendant/simple-storefront/pkg/auth"
)

// Revoker ends server-side sessions. *auth.SessionService implements it.
type Revoker interface {
	RevokeSession(ctx context.Context, sessionID uuid.UUID) error
	RevokeToken(ctx context.Context, sessionToken string) error
}

// Handler handles session endpoints.
type Handler struct {
	logger       *slog.Logger
	sessions     Revoker
	cookieConfig httputil.CookieConfig
}

// NewHandler creates a new session handler.
func NewHandler(logger *slog.Logger, sessions Revoker, cookies httputil.CookieConfig) *Handler {
	return &Handler{
		logger:       logger,
		sessions:     sessions,
		cookieConfig: cookies,
	}
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
}

// Logout revokes the caller's session and clears the session cookie. It
// succeeds whether or not the caller was signed in.
// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var err error
	if p, ok := middleware.GetPrincipal(r.Context()); ok {
		err = h.sessions.RevokeSession(r.Context(), p.SessionID)
	} else if token, ok := httputil.GetSessionToken(r); ok {
		err = h.sessions.RevokeToken(r.Context(), token)
	}
	if err != nil && !auth.IsAuthError(err) {
		h.logger.Warn("failed to revoke session on logout", "error", err)
	}

	httputil.ClearSessionCookie(w, h.cookieConfig)
	httputil.JSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// RegisterRoutes registers session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/auth/logout", h.Logout)
}

package google

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-storefront/internal/http/features/common"
	"github.com/tendant/simple-storefront/internal/httputil"
	"github.com/tendant/simple-storefront/pkg/auth"
	"github.com/tendant/simple-storefront/pkg/domain"
)

const (
	successRedirect = "/?login=success"
	errorRedirect   = "/?login=error"
)

// Flow is the Google sign-in flow. *auth.GoogleService implements it.
type Flow interface {
	Enabled() bool
	Start(ctx context.Context) (string, error)
	Callback(ctx context.Context, code, state string, opts auth.IssueSessionOpts) (*domain.User, *domain.IssuedSession, error)
}

// Handler handles Google OAuth endpoints.
type Handler struct {
	logger       *slog.Logger
	google       Flow
	sessionTTL   time.Duration
	cookieConfig httputil.CookieConfig
}

// NewHandler creates a new Google handler. A nil or unconfigured flow
// answers every request with "not configured".
func NewHandler(logger *slog.Logger, google Flow, sessionTTL time.Duration, cookies httputil.CookieConfig) *Handler {
	return &Handler{
		logger:       logger,
		google:       google,
		sessionTTL:   sessionTTL,
		cookieConfig: cookies,
	}
}

// StartResponse carries the consent screen URL.
type StartResponse struct {
	URL string `json:"url"`
}

func (h *Handler) enabled() bool {
	return h.google != nil && h.google.Enabled()
}

// Start returns the Google consent URL.
// GET /api/auth/google
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	if !h.enabled() {
		httputil.Error(w, http.StatusInternalServerError, "Google OAuth not configured")
		return
	}

	url, err := h.google.Start(r.Context())
	if err != nil {
		h.logger.Error("failed to start google sign-in", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httputil.JSON(w, http.StatusOK, StartResponse{URL: url})
}

// Callback finishes the Google sign-in and sends the browser home.
// GET /api/auth/google/callback?code=...&state=...
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	if !h.enabled() {
		http.Error(w, "Google OAuth not configured", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		h.logger.Warn("google sign-in denied", "error", e)
		http.Redirect(w, r, errorRedirect, http.StatusFound)
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	user, issued, err := h.google.Callback(r.Context(), code, q.Get("state"), common.SessionOpts(r))
	if err != nil {
		h.logger.Error("google sign-in failed", "error", err)
		http.Redirect(w, r, errorRedirect, http.StatusFound)
		return
	}

	common.SetSession(w, issued, h.sessionTTL, h.cookieConfig)
	h.logger.Info("google sign-in", "user_id", user.ID)
	http.Redirect(w, r, successRedirect, http.StatusFound)
}

// RegisterRoutes registers Google OAuth routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/auth/google", h.Start)
	r.Get("/api/auth/google/callback", h.Callback)
}

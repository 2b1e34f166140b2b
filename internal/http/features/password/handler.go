package password

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tendant/simple-storefront/internal/http/features/common"
	"github.com/tendant/simple-storefront/internal/httputil"
	"github.com/tendant/simple-storefront/pkg/auth"
	"github.com/tendant/simple-storefront/pkg/domain"
)

// Authenticator signs users up and in. *auth.PasswordService implements it.
type Authenticator interface {
	Signup(ctx context.Context, email, username, password string, opts auth.IssueSessionOpts) (*domain.User, *domain.IssuedSession, error)
	Login(ctx context.Context, email, password string, opts auth.IssueSessionOpts) (*domain.User, *domain.IssuedSession, error)
}

// Resetter runs the forgotten password flow. *auth.ResetService implements it.
type Resetter interface {
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Handler handles password authentication endpoints.
type Handler struct {
	logger       *slog.Logger
	passwords    Authenticator
	resets       Resetter
	sessionTTL   time.Duration
	cookieConfig httputil.CookieConfig
	validate     *validator.Validate
}

// NewHandler creates a new password handler.
func NewHandler(
	logger *slog.Logger,
	passwords Authenticator,
	resets Resetter,
	sessionTTL time.Duration,
	cookies httputil.CookieConfig,
) *Handler {
	return &Handler{
		logger:       logger,
		passwords:    passwords,
		resets:       resets,
		sessionTTL:   sessionTTL,
		cookieConfig: cookies,
		validate:     validator.New(),
	}
}

// SignupRequest represents a signup request.
type SignupRequest struct {
	Email    string `json:"email" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	User domain.PublicUser `json:"user"`
	common.TokenResponse
}

// Signup registers a password user and signs them in.
// POST /api/auth/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Email, username and password are required")
		return
	}

	user, issued, err := h.passwords.Signup(r.Context(), req.Email, req.Username, req.Password, common.SessionOpts(r))
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}

	public := user.Public()
	public.GoogleID = nil
	h.logger.Info("user signed up", "user_id", user.ID)
	httputil.JSON(w, http.StatusCreated, AuthResponse{
		User:          public,
		TokenResponse: common.SetSession(w, issued, h.sessionTTL, h.cookieConfig),
	})
}

// Login verifies a password and signs the user in.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, issued, err := h.passwords.Login(r.Context(), req.Email, req.Password, common.SessionOpts(r))
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}

	public := user.Public()
	public.GoogleID = nil
	httputil.JSON(w, http.StatusOK, AuthResponse{
		User:          public,
		TokenResponse: common.SetSession(w, issued, h.sessionTTL, h.cookieConfig),
	})
}

// ForgotPasswordRequest represents a reset-link request.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents a password reset.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
}

// ForgotPassword issues a reset link. The reply never tells whether the
// address has an account.
// POST /api/auth/forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}

	if err := h.resets.ForgotPassword(r.Context(), req.Email); err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, MessageResponse{
		Message: "If that email exists, a reset link has been sent",
	})
}

// ResetPassword consumes a reset token.
// POST /api/auth/reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}

	if err := h.resets.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, MessageResponse{
		Message: "Password reset successfully",
	})
}

package common

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/internal/httputil"
	"github.com/tendant/simple-storefront/pkg/auth"
	"github.com/tendant/simple-storefront/pkg/domain"
)

// WriteError maps a service error onto its HTTP status and message.
// Anything unrecognised is logged and reported as a bare 500.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		validation  *domain.ValidationError
		credentials *domain.CredentialsError
		locked      *domain.LockedError
	)

	switch {
	case errors.As(err, &validation):
		httputil.Error(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, httputil.ErrBodyTooLarge):
		httputil.WriteDecodeError(w, err)
	case errors.Is(err, domain.ErrValidation):
		httputil.Error(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, domain.ErrDuplicateEmail):
		httputil.Error(w, http.StatusBadRequest, "Email already registered")
	case errors.As(err, &credentials):
		httputil.Error(w, http.StatusUnauthorized, fmt.Sprintf(
			"Invalid email or password. %d attempt(s) remaining before account lockout.", credentials.RemainingAttempts))
	case errors.Is(err, domain.ErrInvalidCredentials):
		httputil.Error(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.As(err, &locked):
		httputil.Error(w, http.StatusLocked, LockedMessage(locked.MinutesRemaining))
	case errors.Is(err, domain.ErrAccountLocked):
		httputil.Error(w, http.StatusLocked, "Account temporarily locked due to multiple failed login attempts.")
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		httputil.Error(w, http.StatusBadRequest, "Invalid or expired reset token")
	case errors.Is(err, domain.ErrEmptyCart):
		httputil.Error(w, http.StatusBadRequest, "Cart is empty")
	case errors.Is(err, domain.ErrInvalidStatus):
		httputil.Error(w, http.StatusBadRequest, "Invalid status")
	case errors.Is(err, domain.ErrUnauthorized), auth.IsAuthError(err):
		httputil.Error(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, domain.ErrForbidden):
		httputil.Error(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, domain.ErrNotFound):
		httputil.Error(w, http.StatusNotFound, notFoundMessage(err))
	default:
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		httputil.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// LockedMessage is the lockout reply shown to the user.
func LockedMessage(minutes int) string {
	return fmt.Sprintf("Account temporarily locked due to multiple failed login attempts. Please try again in %d minute(s).", minutes)
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return "Order not found"
	case errors.Is(err, domain.ErrProductNotFound):
		return "Product not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, domain.ErrCategoryNotFound):
		return "Category not found"
	case errors.Is(err, domain.ErrCartItemNotFound):
		return "Cart item not found"
	}
	return "Not found"
}

// URLParamID parses a uuid path parameter. A malformed id cannot name any
// row, so it is reported as notFound.
func URLParamID(r *http.Request, name string, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}

// SessionOpts captures the client details stored with a new session.
func SessionOpts(r *http.Request) auth.IssueSessionOpts {
	return auth.IssueSessionOpts{
		IP:        httputil.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

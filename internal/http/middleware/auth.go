package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/internal/httputil"
	"github.com/tendant/simple-storefront/pkg/auth"
	"github.com/tendant/simple-storefront/pkg/domain"
)

type contextKey string

const (
	principalKey contextKey = "principal"
	userKey      contextKey = "user"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
}

// TokenResolver turns a bearer or cookie token into a live session.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*domain.Session, error)
}

// UserLookup loads the current user record.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Authenticate attaches a Principal when the request carries a valid token.
// Requests without one, or with a stale one, continue anonymously.
// Checks the Authorization header first, then the session cookie.
func Authenticate(resolver TokenResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				token, _ = httputil.GetSessionToken(r)
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := resolver.ResolveToken(r.Context(), token)
			if err != nil {
				if !auth.IsAuthError(err) {
					logger.Error("failed to resolve session", "error", err, "path", r.URL.Path)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithPrincipal(r.Context(), Principal{UserID: session.UserID, SessionID: session.ID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetPrincipal(r.Context()); !ok {
			httputil.Error(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
// The admin flag is read from the user record on every request, never from
// the token.
func RequireAdmin(users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := GetPrincipal(r.Context())
			if !ok {
				httputil.Error(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			user, err := users.GetByID(r.Context(), p.UserID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					httputil.Error(w, http.StatusForbidden, "Admin access required")
					return
				}
				logger.Error("failed to load user for admin check", "error", err, "user_id", p.UserID)
				httputil.Error(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !user.IsAdmin {
				httputil.Error(w, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
		})
	}
}

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal extracts the authenticated caller from the request context.
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// GetAdmin returns the admin user loaded by RequireAdmin.
func GetAdmin(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok
}

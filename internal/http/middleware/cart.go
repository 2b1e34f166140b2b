package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/internal/httputil"
	"github.com/tendant/simple-storefront/pkg/domain"
)

const ownerKey contextKey = "cart_owner"

// CartOwner resolves whose cart a request addresses. Signed-in users own
// their user cart; everyone else gets an anonymous cart keyed by a cookie
// that is issued on first use. Must run after Authenticate.
func CartOwner(cookies httputil.CookieConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var owner domain.Owner
			if p, ok := GetPrincipal(r.Context()); ok {
				owner = domain.UserOwner(p.UserID)
			} else {
				id, ok := httputil.GetCartID(r)
				if !ok {
					id = uuid.NewString()
				}
				// Refresh on every visit so active carts do not expire.
				httputil.SetCartCookie(w, id, cookies)
				owner = domain.SessionOwner(id)
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey, owner)))
		})
	}
}

// GetCartOwner returns the owner resolved by CartOwner.
func GetCartOwner(ctx context.Context) domain.Owner {
	owner, _ := ctx.Value(ownerKey).(domain.Owner)
	return owner
}

package common

import (
	"net/http"
	"time"

	"github.com/tendant/simple-storefront/internal/httputil"
	"github.com/tendant/simple-storefront/pkg/domain"
)

// TokenResponse is the bearer half of a freshly issued session. Browsers
// rely on the session cookie instead.
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresIn int    `json:"expiresIn"`
}

// SetSession writes the session cookie for issued and returns the bearer
// token for the response body.
func SetSession(w http.ResponseWriter, issued *domain.IssuedSession, ttl time.Duration, cookies httputil.CookieConfig) TokenResponse {
	httputil.SetSessionCookie(w, issued.SessionToken, ttl, cookies)
	return TokenResponse{
		Token:     issued.AccessToken,
		TokenType: issued.TokenType,
		ExpiresIn: issued.ExpiresIn,
	}
}

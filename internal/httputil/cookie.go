package httputil

import (
	"net"
	"net/http"
	"time"
)

const (
	// SessionCookie carries the opaque session token.
	SessionCookie = "session_token"
	// CartCookie identifies an anonymous cart.
	CartCookie = "cart_session"
	// CartCookieTTL is how long an anonymous cart survives without a visit.
	CartCookieTTL = 30 * 24 * time.Hour
)

// CookieConfig holds cookie configuration.
type CookieConfig struct {
	Domain   string
	Path     string
	Secure   bool // Set to true in production (HTTPS)
	SameSite http.SameSite
}

// DefaultCookieConfig returns default cookie configuration.
func DefaultCookieConfig(secure bool) CookieConfig {
	return CookieConfig{
		Path:     "/",
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c CookieConfig) set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.Path,
		Domain:   c.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

// SetSessionCookie stores the session token as an HttpOnly cookie.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, cfg CookieConfig) {
	cfg.set(w, SessionCookie, token, int(ttl.Seconds()))
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	cfg.set(w, SessionCookie, "", -1)
}

// GetSessionToken extracts the session token from its cookie.
func GetSessionToken(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// SetCartCookie stores the anonymous cart id.
func SetCartCookie(w http.ResponseWriter, id string, cfg CookieConfig) {
	cfg.set(w, CartCookie, id, int(CartCookieTTL.Seconds()))
}

// GetCartID extracts the anonymous cart id from its cookie.
func GetCartID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CartCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// ClientIP returns the remote host without the port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/simple-storefront/internal/config"
	"github.com/tendant/simple-storefront/internal/http/features/admin"
	"github.com/tendant/simple-storefront/internal/http/features/cart"
	"github.com/tendant/simple-storefront/internal/http/features/catalog"
	"github.com/tendant/simple-storefront/internal/http/features/contact"
	"github.com/tendant/simple-storefront/internal/http/features/google"
	"github.com/tendant/simple-storefront/internal/http/features/me"
	"github.com/tendant/simple-storefront/internal/http/features/orders"
	"github.com/tendant/simple-storefront/internal/http/features/password"
	"github.com/tendant/simple-storefront/internal/http/features/session"
	"github.com/tendant/simple-storefront/internal/http/middleware"
	"github.com/tendant/simple-storefront/internal/httputil"
	"github.com/tendant/simple-storefront/pkg/auth"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger          *slog.Logger
	PasswordService password.Authenticator
	ResetService    password.Resetter
	GoogleService   google.Flow
	SessionService  *auth.SessionService
	Users           middleware.UserLookup
	Products        catalog.Products
	Categories      catalog.Categories
	Cart            cart.Service
	Orders          OrderService
	Realtime        http.Handler
	RateLimitConfig config.RateLimitConfig
	SecurityHeaders config.SecurityHeadersConfig
	Validation      config.ValidationConfig
	CookieSecure    bool
}

// OrderService covers both the shopper and admin order endpoints.
type OrderService interface {
	orders.Service
	admin.OrderManager
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	cookies := httputil.DefaultCookieConfig(cfg.CookieSecure)
	sessionTTL := cfg.SessionService.SessionTTL()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Realtime != nil {
		r.Handle("/ws", cfg.Realtime)
	}

	limiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)
	requireAdmin := middleware.RequireAdmin(cfg.Users, cfg.Logger)
	cartOwner := middleware.CartOwner(cookies)

	r.Group(func(r chi.Router) {
		r.Use(limiters.General)
		r.Use(middleware.Authenticate(cfg.SessionService, cfg.Logger))

		password.NewHandler(cfg.Logger, cfg.PasswordService, cfg.ResetService, sessionTTL, cookies).
			RegisterRoutes(r, limiters.Auth)
		session.NewHandler(cfg.Logger, cfg.SessionService, cookies).RegisterRoutes(r)
		me.NewHandler(cfg.Logger, cfg.Users).RegisterRoutes(r)
		google.NewHandler(cfg.Logger, cfg.GoogleService, sessionTTL, cookies).RegisterRoutes(r)

		catalog.NewHandler(cfg.Logger, cfg.Products, cfg.Categories).RegisterRoutes(r, requireAdmin)

		r.Group(func(r chi.Router) {
			r.Use(cartOwner)
			cart.NewHandler(cfg.Logger, cfg.Cart).RegisterRoutes(r)
		})

		orders.NewHandler(cfg.Logger, cfg.Orders, cfg.Users).RegisterRoutes(r, cartOwner)
		admin.NewHandler(cfg.Logger, cfg.Orders).RegisterRoutes(r, requireAdmin)
		contact.NewHandler(cfg.Logger).RegisterRoutes(r)
	})

	return r
}

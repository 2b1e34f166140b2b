package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/tendant/simple-storefront/internal/config"
	"github.com/tendant/simple-storefront/internal/httputil"
)

// RateLimitConfig holds rate limiting configuration for one route group.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Message  string
	Logger   *slog.Logger
}

// RateLimit creates an IP-based rate limiter middleware with logging.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	message := cfg.Message
	if message == "" {
		message = "Too many requests. Please try again later."
	}
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit exceeded",
					"ip", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
					"user_agent", r.UserAgent(),
				)
			}
			httputil.Error(w, http.StatusTooManyRequests, message)
		}),
	)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// RateLimiters are the per-group limiters.
type RateLimiters struct {
	// Auth guards signup, login and the password reset endpoints.
	Auth func(http.Handler) http.Handler
	// General guards every /api route.
	General func(http.Handler) http.Handler
}

// CreateRateLimiters creates rate limiting middleware functions based on configuration.
func CreateRateLimiters(cfg config.RateLimitConfig, logger *slog.Logger) RateLimiters {
	if !cfg.Enabled {
		return RateLimiters{Auth: NoRateLimit(), General: NoRateLimit()}
	}

	return RateLimiters{
		Auth: RateLimit(RateLimitConfig{
			Requests: cfg.AuthRequestsPerWindow,
			Window:   time.Duration(cfg.AuthWindowMinutes) * time.Minute,
			Message:  fmt.Sprintf("Too many authentication attempts. Please try again in %d minutes.", cfg.AuthWindowMinutes),
			Logger:   logger,
		}),
		General: RateLimit(RateLimitConfig{
			Requests: cfg.GeneralRequestsPerWindow,
			Window:   time.Duration(cfg.GeneralWindowMinutes) * time.Minute,
			Logger:   logger,
		}),
	}
}

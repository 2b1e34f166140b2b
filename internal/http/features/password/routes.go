package password

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers password authentication routes. limit wraps
// every route with the auth rate limiter.
func (h *Handler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(limit)
		r.Post("/api/auth/signup", h.Signup)
		r.Post("/api/auth/login", h.Login)
		r.Post("/api/auth/forgot-password", h.ForgotPassword)
		r.Post("/api/auth/reset-password", h.ResetPassword)
	})
}

package contact

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-storefront/internal/httputil"
	"github.com/tendant/simple-storefront/pkg/auth"
)

// Handler handles the contact form.
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a new contact handler.
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// Request is a contact form submission.
type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Response acknowledges a submission.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Submit records a contact form message.
// POST /api/contact
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)
	if name == "" || strings.TrimSpace(req.Email) == "" || subject == "" || message == "" {
		httputil.Error(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if err := auth.ValidateEmail(req.Email, false); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	h.logger.Info("contact form submission",
		"name", auth.SanitizeInput(name),
		"email", auth.NormalizeEmail(req.Email),
		"subject", auth.SanitizeInput(subject),
		"message", auth.SanitizeInput(message),
	)

	httputil.JSON(w, http.StatusOK, Response{Success: true, Message: "Message received successfully"})
}

// RegisterRoutes registers the contact route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/contact", h.Submit)
}

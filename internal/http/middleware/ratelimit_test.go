package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tendant/simple-storefront/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func TestRateLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := RateLimitConfig{
		Requests: 2,
		Window:   time.Second,
		Message:  "slow down",
		Logger:   logger,
	}

	handler := RateLimit(cfg)(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: got status %d, want %d", i+1, w.Code, http.StatusOK)
		}
	}

	// Third request should be rate limited
	req3 := httptest.NewRequest("GET", "/test", nil)
	req3.RemoteAddr = "192.168.1.1:12345"
	w3 := httptest.NewRecorder()
	handler.ServeHTTP(w3, req3)

	if w3.Code != http.StatusTooManyRequests {
		t.Errorf("Third request: got status %d, want %d", w3.Code, http.StatusTooManyRequests)
	}
	var body map[string]string
	json.NewDecoder(w3.Body).Decode(&body)
	if body["error"] != "slow down" {
		t.Errorf("error = %q, want %q", body["error"], "slow down")
	}

	// Another IP has its own budget
	req4 := httptest.NewRequest("GET", "/test", nil)
	req4.RemoteAddr = "10.0.0.9:5555"
	w4 := httptest.NewRecorder()
	handler.ServeHTTP(w4, req4)
	if w4.Code != http.StatusOK {
		t.Errorf("Other IP: got status %d, want %d", w4.Code, http.StatusOK)
	}
}

func TestNoRateLimit(t *testing.T) {
	handler := NoRateLimit()(okHandler())

	// All requests should succeed
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: got status %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

func TestCreateRateLimiters_Disabled(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled: false,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	limiters := CreateRateLimiters(cfg, logger)

	for name, mw := range map[string]func(http.Handler) http.Handler{"auth": limiters.Auth, "general": limiters.General} {
		handler := mw(okHandler())
		for i := 0; i < 20; i++ {
			req := httptest.NewRequest("GET", "/test", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("%s request %d: got status %d, want %d", name, i, w.Code, http.StatusOK)
			}
		}
	}
}

func TestCreateRateLimiters_Enabled(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:                  true,
		AuthRequestsPerWindow:    5,
		AuthWindowMinutes:        15,
		GeneralRequestsPerWindow: 100,
		GeneralWindowMinutes:     15,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	limiters := CreateRateLimiters(cfg, logger)
	if limiters.Auth == nil || limiters.General == nil {
		t.Fatal("limiters should not be nil")
	}

	handler := limiters.Auth(okHandler())
	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "192.168.1.7:1000"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Errorf("6th auth request: got status %d, want %d", last.Code, http.StatusTooManyRequests)
	}
	var body map[string]string
	json.NewDecoder(last.Body).Decode(&body)
	if want := "Too many authentication attempts. Please try again in 15 minutes."; body["error"] != want {
		t.Errorf("error = %q, want %q", body["error"], want)
	}
}

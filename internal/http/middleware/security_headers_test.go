package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tendant/simple-storefront/internal/config"
)

func TestSecurityHeaders(t *testing.T) {
	full := config.SecurityHeadersConfig{
		Enabled:            true,
		CSP:                "default-src 'self'",
		HSTSMaxAge:         31536000,
		FrameOptions:       "DENY",
		ContentTypeOptions: "nosniff",
		XSSProtection:      "1; mode=block",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		PermissionsPolicy:  "geolocation=()",
	}

	tests := []struct {
		name string
		cfg  config.SecurityHeadersConfig
		path string
		want map[string]string
	}{
		{
			name: "api route",
			cfg:  full,
			path: "/api/orders/1",
			want: map[string]string{
				"Content-Security-Policy":   "default-src 'self'",
				"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
				"X-Frame-Options":           "DENY",
				"X-Content-Type-Options":    "nosniff",
				"X-XSS-Protection":          "1; mode=block",
				"Referrer-Policy":           "strict-origin-when-cross-origin",
				"Permissions-Policy":        "geolocation=()",
				"Cache-Control":             "no-store",
			},
		},
		{
			name: "health is cacheable",
			cfg:  full,
			path: "/health",
			want: map[string]string{"X-Frame-Options": "DENY", "Cache-Control": ""},
		},
		{
			name: "websocket upgrade path",
			cfg:  full,
			path: "/ws",
			want: map[string]string{"X-Content-Type-Options": "nosniff", "Cache-Control": ""},
		},
		{
			name: "disabled",
			cfg:  config.SecurityHeadersConfig{CSP: "default-src 'self'"},
			path: "/api/products",
			want: map[string]string{"Content-Security-Policy": "", "Cache-Control": ""},
		},
		{
			name: "empty values are skipped",
			cfg:  config.SecurityHeadersConfig{Enabled: true, ReferrerPolicy: "no-referrer"},
			path: "/api/cart",
			want: map[string]string{
				"Content-Security-Policy":   "",
				"Strict-Transport-Security": "",
				"X-Frame-Options":           "",
				"Referrer-Policy":           "no-referrer",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := SecurityHeaders(tt.cfg)(okHandler())
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			for header, want := range tt.want {
				if got := w.Header().Get(header); got != want {
					t.Errorf("%s = %q, want %q", header, got, want)
				}
			}
		})
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	called := false
	mw := CORS([]string{"https://lailagmaihi.com/"})
	req := httptest.NewRequest(http.MethodPost, "/api/widget/sessions", nil)
	req.Header.Set("Origin", "https://lailagmaihi.com")
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://lailagmaihi.com" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != corsAllowedMethods {
		t.Fatalf("unexpected allow methods %q", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); got != corsExposedHeaders {
		t.Fatalf("unexpected expose headers %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("expected Vary: Origin, got %q", got)
	}
}

func TestCORSDeniesUnknownOrigin(t *testing.T) {
	called := false
	mw := CORS([]string{"https://lailagmaihi.com"})
	req := httptest.NewRequest(http.MethodGet, "/api/slots", nil)
	req.Header.Set("Origin", "https://unknown.example")
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow origin header, got %q", got)
	}
	if !called {
		t.Fatalf("simple requests still reach the handler")
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	called := false
	mw := CORS([]string{"*"})
	req := httptest.NewRequest(http.MethodGet, "/api/slots", nil)
	req.Header.Set("Origin", "https://random.example")
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://random.example" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
}

func TestCORSHandlesPreflight(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		status int
	}{
		{"allowed", "https://lailagmaihi.com", http.StatusNoContent},
		{"denied", "https://evil.example", http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			mw := CORS([]string{"https://lailagmaihi.com"})
			req := httptest.NewRequest(http.MethodOptions, "/api/widget/sessions/abc/draft", nil)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
			rec := httptest.NewRecorder()

			mw(okHandler(&called)).ServeHTTP(rec, req)

			if called {
				t.Fatalf("expected handler to not be called on preflight")
			}
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestCORSIgnoresRequestsWithoutOrigin(t *testing.T) {
	called := false
	mw := CORS([]string{"https://lailagmaihi.com"})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, req)

	if !called || rec.Header().Get("Vary") != "" {
		t.Fatalf("expected passthrough without CORS headers")
	}
}

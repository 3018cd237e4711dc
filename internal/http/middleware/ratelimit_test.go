package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterReserve(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	for i := range 2 {
		if ok, _ := rl.Reserve("10.0.0.1"); !ok {
			t.Fatalf("request %d should fit the burst", i)
		}
	}
	ok, wait := rl.Reserve("10.0.0.1")
	if ok {
		t.Fatalf("third request should be limited")
	}
	if wait != time.Second {
		t.Fatalf("expected 1s wait, got %s", wait)
	}
	if ok, _ := rl.Reserve("10.0.0.2"); !ok {
		t.Fatalf("other clients have their own bucket")
	}

	now = now.Add(1500 * time.Millisecond)
	if ok, _ := rl.Reserve("10.0.0.1"); !ok {
		t.Fatalf("token should refill after a second")
	}
}

func TestRateLimiterSweep(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	rl.Reserve("a")
	now = now.Add(staleAfter / 2)
	rl.Reserve("b")
	now = now.Add(staleAfter/2 + time.Second)

	if dropped := rl.Sweep(); dropped != 1 {
		t.Fatalf("expected 1 stale client dropped, got %d", dropped)
	}
	if _, ok := rl.clients["b"]; !ok {
		t.Fatalf("recent client should be kept")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.1, 1)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/ebook", nil)
		req.RemoteAddr = "192.0.2.7:51234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(http.MethodPost); rec.Code != http.StatusOK {
		t.Fatalf("first post should pass, got %d", rec.Code)
	}
	rec := send(http.MethodPost)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	if rec := send(http.MethodGet); rec.Code != http.StatusOK {
		t.Fatalf("reads are never limited, got %d", rec.Code)
	}
}

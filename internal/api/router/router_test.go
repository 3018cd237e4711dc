package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/therapy-booking/internal/calendar"
	httpmiddleware "github.com/wolfman30/therapy-booking/internal/http/middleware"
	"github.com/wolfman30/therapy-booking/internal/notify"
	"github.com/wolfman30/therapy-booking/internal/observability/metrics"
	"github.com/wolfman30/therapy-booking/internal/sessions"
	"github.com/wolfman30/therapy-booking/internal/widget"
	"github.com/wolfman30/therapy-booking/pkg/logging"
)

func newTestRouter(t *testing.T, limiter *httpmiddleware.RateLimiter) http.Handler {
	t.Helper()

	logger := logging.Default()
	reg := prometheus.NewRegistry()
	m := metrics.NewWidgetMetrics(reg)
	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Email:   notify.NewStubEmailSender(logger),
		Metrics: m,
	}, logger)
	svc := widget.NewService(widget.ServiceConfig{
		Store:     sessions.NewInMemoryStore(time.Hour),
		Policy:    calendar.NewPolicy(time.UTC, nil),
		Deliverer: dispatcher,
		Metrics:   m,
		Logger:    logger,
	})

	cfg := &Config{
		Logger:             logger,
		WidgetHandler:      widget.NewHandler(svc, logger),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		RateLimiter:        limiter,
		CORSAllowedOrigins: []string{"https://lailagmaihi.com"},
	}

	return New(cfg)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Errorf("expected request id header")
	}
}

func TestRouterWidgetSessionAndMetrics(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/widget/sessions", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `therapy_widget_sessions_started_total{store="memory"} 1`) {
		t.Fatalf("expected session counter in exposition, got:\n%s", rr.Body.String())
	}
}

func TestRouterEbookEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/ebook", strings.NewReader(`{"name":"Amal","email":"amal@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Thank you Amal!") {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/widget/sessions", nil)
	req.Header.Set("Origin", "https://lailagmaihi.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected preflight status %d, got %d", http.StatusNoContent, rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://lailagmaihi.com" {
		t.Fatalf("missing allow origin header")
	}
}

func TestRouterRateLimitsWrites(t *testing.T) {
	router := newTestRouter(t, httpmiddleware.NewRateLimiter(0.01, 1))

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/widget/sessions", nil)
		req.RemoteAddr = "198.51.100.4:40000"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := post(); code != http.StatusCreated {
		t.Fatalf("first post should pass, got %d", code)
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Fatalf("second post should be limited, got %d", code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/slots", nil)
	req.RemoteAddr = "198.51.100.4:40000"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("reads should not be limited, got %d", rr.Code)
	}
}

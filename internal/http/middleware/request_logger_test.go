package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/therapy-booking/pkg/logging"
)

func TestRequestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "debug", "json")

	handler := chimw.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnprocessableEntity)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/widget/sessions/abc/submit", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get(chimw.RequestIDHeader) == "" {
		t.Fatalf("expected request id header on the response")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("expected one json log line, got %q: %v", buf.String(), err)
	}
	if entry["level"] != "WARN" {
		t.Fatalf("expected WARN for a 4xx, got %v", entry["level"])
	}
	if entry["status"] != float64(http.StatusUnprocessableEntity) {
		t.Fatalf("unexpected status %v", entry["status"])
	}
	if entry["component"] != "http" {
		t.Fatalf("unexpected component %v", entry["component"])
	}
	if entry["request_id"] != rec.Header().Get(chimw.RequestIDHeader) {
		t.Fatalf("request id mismatch")
	}
}

func TestRequestLoggerDefaultsToOK(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info", "json")

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(chimw.RequestIDHeader, "req-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), `"status":200`) || !strings.Contains(buf.String(), `"request_id":"req-123"`) {
		t.Fatalf("unexpected log line %q", buf.String())
	}
}

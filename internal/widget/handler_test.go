package widget

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *fixture) {
	t.Helper()
	f := newFixture(t)
	h := NewHandler(f.svc, nil)

	r := chi.NewRouter()
	r.Get("/health", h.HealthCheck)
	r.Mount("/api", h.Routes())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, f
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp, out
}

func startSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/widget/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := body["session_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHandler_HealthAndCatalog(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/services", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	services := body["services"].([]any)
	require.Len(t, services, 4)
	first := services[0].(map[string]any)
	assert.Equal(t, "individual", first["value"])
	assert.Equal(t, "1-on-1 Therapy", first["label"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/slots", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["slots"], 9)
}

func TestHandler_BookingFlow(t *testing.T) {
	srv, f := newTestServer(t)
	id := startSession(t, srv)
	base := srv.URL + "/api/widget/sessions/" + id

	resp, body := doJSON(t, http.MethodPost, base+"/calendar/next", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "November 2026", body["month"].(map[string]any)["label"])

	resp, _ = doJSON(t, http.MethodPost, base+"/calendar/prev", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPatch, base+"/draft",
		`{"name":"Sarah","email":"sarah@example.com","phone":"+212600000000","service":"individual","description":"Evenings\nif possible"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPut, base+"/date", `{"date":"2026-10-20"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Tuesday, October 20, 2026", body["draft"].(map[string]any)["formatted_date"])

	resp, _ = doJSON(t, http.MethodPut, base+"/time", `{"time":"10:00"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPost, base+"/submit", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(body["message"].(string), "Thank you, Sarah!"))
	conf := body["confirmation"].(map[string]any)
	assert.Equal(t, "Tuesday, October 20, 2026", conf["formattedDate"])
	assert.Equal(t, "10:00", conf["selectedTime"])
	assert.Equal(t, "Evenings\nif possible", conf["description"])

	view := body["view"].(map[string]any)
	assert.Equal(t, "", view["draft"].(map[string]any)["name"])
	assert.Len(t, f.deliverer.bookings, 1)
}

func TestHandler_ErrorMapping(t *testing.T) {
	srv, f := newTestServer(t)
	id := startSession(t, srv)
	base := srv.URL + "/api/widget/sessions/" + id

	tests := []struct {
		name   string
		method string
		url    string
		body   string
		status int
	}{
		{"unknown session", http.MethodGet, srv.URL + "/api/widget/sessions/nope", "", http.StatusNotFound},
		{"bad direction", http.MethodPost, base + "/calendar/up", "", http.StatusBadRequest},
		{"bad json", http.MethodPut, base + "/date", `{"date":`, http.StatusBadRequest},
		{"bad date", http.MethodPut, base + "/date", `{"date":"tomorrow"}`, http.StatusBadRequest},
		{"weekend", http.MethodPut, base + "/date", `{"date":"2026-10-18"}`, http.StatusBadRequest},
		{"past", http.MethodPut, base + "/date", `{"date":"2026-10-15"}`, http.StatusBadRequest},
		{"time before date", http.MethodPut, base + "/time", `{"time":"10:00"}`, http.StatusBadRequest},
		{"unknown service", http.MethodPatch, base + "/draft", `{"service":"massage"}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := doJSON(t, tc.method, tc.url, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}

	resp, body := doJSON(t, http.MethodPost, base+"/submit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Please fill in all required fields and select a date and time.", body["error"])
	assert.Len(t, body["missing"], 6)

	f.fill(t, id)
	f.deliverer.err = errors.New("provider down")
	resp, body = doJSON(t, http.MethodPost, base+"/submit", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "could not send your request, please try again", body["error"])
}

func TestHandler_Subscribe(t *testing.T) {
	srv, f := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/ebook", `{"name":"Amal","email":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Please fill in both your name and email address.", body["error"])
	assert.Empty(t, f.deliverer.subscriptions)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/ebook", `{"name":"Amal","email":"amal@example.com"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Thank you Amal! Your free eBook will be sent to amal@example.com", body["message"])
}

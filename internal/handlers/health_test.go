package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthHandlerHandle(t *testing.T) {
	fixed := time.Date(2026, time.February, 3, 4, 5, 6, 0, time.UTC)
	handler := HealthHandler{NowFunc: func() time.Time { return fixed }}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected json content type got %s", got)
	}

	resp := decodeBody[healthResponse](t, rec)
	if resp.Message != "Backend is running" || !resp.Timestamp.Equal(fixed) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRouterHealthAndFallbacks(t *testing.T) {
	srv := newTestServer(t, Dependencies{})

	if rec := srv.do(t, http.MethodGet, "/api/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	expectError(t, srv.do(t, http.MethodPost, "/api/health", "", nil), http.StatusMethodNotAllowed, "Method not allowed")
	expectError(t, srv.do(t, http.MethodGet, "/api/unknown", "", nil), http.StatusNotFound, "Not found")
}

func TestRouterCORS(t *testing.T) {
	srv := newTestServer(t, Dependencies{CORSOrigins: []string{"https://popcorn.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/recommendations", nil)
	req.Header.Set("Origin", "https://popcorn.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()

	srv.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://popcorn.example" {
		t.Fatalf("expected allowed origin header got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow-origin for foreign origin: %q", got)
	}
}

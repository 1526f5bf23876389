package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func request(h http.Handler, method, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/draws", nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(1, 2, time.Minute)
	h := rl.Handler(http.HandlerFunc(ok))

	for i := 0; i < 2; i++ {
		if w := request(h, http.MethodGet, "10.0.0.1:5000"); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	w := request(h, http.MethodGet, "10.0.0.1:5001")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Errorf("expected Retry-After 1, got %q", w.Header().Get("Retry-After"))
	}

	// A different client has its own bucket.
	if w := request(h, http.MethodGet, "10.0.0.2:5000"); w.Code != http.StatusOK {
		t.Errorf("expected 200 for second client, got %d", w.Code)
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Handler(http.HandlerFunc(ok))
	request(h, http.MethodGet, "10.0.0.1:5000")
	now = now.Add(30 * time.Second)
	request(h, http.MethodGet, "10.0.0.2:5000")

	now = now.Add(45 * time.Second)
	if dropped := rl.Cleanup(); dropped != 1 {
		t.Errorf("expected 1 idle client dropped, got %d", dropped)
	}
}

func TestCORS(t *testing.T) {
	h := CORS(http.HandlerFunc(ok))

	w := request(h, http.MethodOptions, "10.0.0.1:5000")
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204 on preflight, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Access-Control-Allow-Origin")
	}

	if w := request(h, http.MethodGet, "10.0.0.1:5000"); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

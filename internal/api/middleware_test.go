package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitMiddleware_BurstThenLimit(t *testing.T) {
	// 40 requests/minute gives a burst of 10. The refill inside the test
	// window is negligible.
	mw := RateLimitMiddleware(40, time.Minute)
	wrapped := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	hit := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/elo/webhook", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 10; i++ {
		if rec := hit("203.0.113.7:1234"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := hit("203.0.113.7:1234")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("request past the burst status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response carries no Retry-After header")
	}

	// Other clients keep their own budget.
	if other := hit("198.51.100.9:1234"); other.Code != http.StatusOK {
		t.Errorf("unrelated client status = %d, want 200", other.Code)
	}
}

func TestNewIPLimiter_MinimumBurst(t *testing.T) {
	l := newIPLimiter(8, time.Minute)
	if l.burst != 5 {
		t.Errorf("burst = %d, want floor of 5", l.burst)
	}
	l = newIPLimiter(60, time.Minute)
	if l.burst != 15 {
		t.Errorf("burst = %d, want a quarter of the window budget", l.burst)
	}
}

package httpmiddleware

import (
	"Recall_1.0/backend/go/pkg/circuitbreaker"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type countLimiter struct{ left int }

func (l *countLimiter) Allow() bool {
	if l.left == 0 {
		return false
	}
	l.left--
	return true
}

type keyLimiter map[string]bool

func (k keyLimiter) AllowKey(key string) bool { return k[key] }

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func serve(h http.Handler, remote string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(&countLimiter{left: 1})(okHandler())
	if code := serve(h, ""); code != http.StatusOK {
		t.Fatalf("first request: %d", code)
	}
	if code := serve(h, ""); code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", code)
	}
}

func TestRateLimitPerClient(t *testing.T) {
	h := RateLimitPerClient(keyLimiter{"10.0.0.1": true})(okHandler())
	if code := serve(h, "10.0.0.1:4000"); code != http.StatusOK {
		t.Fatalf("allowed client: %d", code)
	}
	if code := serve(h, "10.0.0.2:4000"); code != http.StatusTooManyRequests {
		t.Fatalf("limited client: %d", code)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:1234"
	if got := ClientKey(req); got != "192.168.1.5" {
		t.Fatalf("ClientKey = %q", got)
	}
	req.RemoteAddr = "pipe"
	if got := ClientKey(req); got != "pipe" {
		t.Fatalf("ClientKey without port = %q", got)
	}
}

func TestCircuitBreak(t *testing.T) {
	breaker := circuitbreaker.New(circuitbreaker.Settings{Name: "test", FailureThreshold: 2, Timeout: time.Hour})
	failing := CircuitBreak(breaker)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	for i := 0; i < 2; i++ {
		if code := serve(failing, ""); code != http.StatusBadGateway {
			t.Fatalf("request %d: %d", i, code)
		}
	}
	if code := serve(failing, ""); code != http.StatusServiceUnavailable {
		t.Fatalf("open circuit: %d", code)
	}
}

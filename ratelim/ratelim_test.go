package ratelim

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
)

func TestLimitExhaustsBurst(t *testing.T) {
	rl := NewRateLimiter(0, 2)
	handle := rl.Limit(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	do := func() int {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
		r.RemoteAddr = "10.0.0.1:52000"
		w := httptest.NewRecorder()
		handle(w, r, nil)
		return w.Code
	}

	if code := do(); code != http.StatusOK {
		t.Fatalf("first request: code = %d", code)
	}
	if code := do(); code != http.StatusOK {
		t.Fatalf("second request: code = %d", code)
	}
	if code := do(); code != http.StatusTooManyRequests {
		t.Fatalf("third request: code = %d, want 429", code)
	}
}

func TestLimitTracksClientsSeparately(t *testing.T) {
	rl := NewRateLimiter(0, 1)
	handle := rl.Limit(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	do := func(addr string) int {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		handle(w, r, nil)
		return w.Code
	}

	if code := do("10.0.0.1:52000"); code != http.StatusOK {
		t.Fatalf("first client: code = %d", code)
	}
	if code := do("10.0.0.2:52000"); code != http.StatusOK {
		t.Fatalf("second client must have a fresh bucket: code = %d", code)
	}
	if code := do("10.0.0.1:53000"); code != http.StatusTooManyRequests {
		t.Fatalf("same client on a new port: code = %d, want 429", code)
	}
}

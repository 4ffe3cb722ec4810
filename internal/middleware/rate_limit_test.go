package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/labstack/echo/v4"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5) // 10 per minute, burst of 5
	defer rl.Stop()

	// First 5 requests should be allowed (burst)
	for i := 0; i < 5; i++ {
		if !rl.Allow("auth0|alice") {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// 6th request should be rate limited (exceeded burst)
	if rl.Allow("auth0|alice") {
		t.Error("Request 6 should be rate limited")
	}
}

func TestRateLimiter_DifferentSubjects(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	defer rl.Stop()

	// Exhaust alice's burst
	for i := 0; i < 3; i++ {
		if !rl.Allow("alice") {
			t.Errorf("alice request %d should be allowed", i+1)
		}
	}

	if rl.Allow("alice") {
		t.Error("alice should be rate limited")
	}

	// bob should still have his full burst
	for i := 0; i < 3; i++ {
		if !rl.Allow("bob") {
			t.Errorf("bob request %d should be allowed", i+1)
		}
	}
}

func TestRateLimiter_GetStateUnknownSubject(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 4)
	defer rl.Stop()

	remaining, _ := rl.GetState("nobody")
	if remaining != 4 {
		t.Errorf("Expected full burst of 4, got %d", remaining)
	}
}

func TestRateLimitMiddleware_SkipsAnonymous(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(1, 1)
	defer rl.Stop()

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		if err := RateLimitMiddleware(rl)(handler)(e.NewContext(req, rec)); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("Request %d: expected status 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimitMiddleware_RateLimitsSubject(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(10, 2) // Small burst for testing
	defer rl.Stop()

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}

	newContext := func(rec *httptest.ResponseRecorder) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/entities", nil)
		req = req.WithContext(WithIdentity(req.Context(), "auth0|alice", "Alice", domain.RoleSalesman))
		return e.NewContext(req, rec)
	}

	// First 2 requests should succeed (burst)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		if err := RateLimitMiddleware(rl)(handler)(newContext(rec)); err != nil {
			t.Fatalf("Request %d: Expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("Request %d: Expected status 200, got %d", i+1, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "10" {
			t.Errorf("Request %d: Expected X-RateLimit-Limit 10, got %q", i+1, rec.Header().Get("X-RateLimit-Limit"))
		}
	}

	// 3rd request should be rate limited
	rec := httptest.NewRecorder()
	if err := RateLimitMiddleware(rl)(handler)(newContext(rec)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
}

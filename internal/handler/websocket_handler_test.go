package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// mockTokenValidator is a test double for websocket token validation
type mockTokenValidator struct {
	identity websocket.Identity
	err      error
	calls    int
}

func (m *mockTokenValidator) ValidateToken(ctx context.Context, token string) (websocket.Identity, error) {
	m.calls++
	return m.identity, m.err
}

var testAllowedOrigins = []string{"http://localhost:3000", "https://salesplan.app"}

func TestWebSocketHandler_HandleWS_MissingToken(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	validator := &mockTokenValidator{identity: websocket.Identity{Subject: "auth0|alice", Role: domain.RoleSalesman}}
	h := NewWebSocketHandler(hub, validator, testAllowedOrigins)

	// Request without token
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	// Should return 401 for missing token
	assert.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	assert.Equal(t, 0, validator.calls)
}

func TestWebSocketHandler_HandleWS_InvalidToken(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	validator := &mockTokenValidator{err: websocket.ErrInvalidToken}
	h := NewWebSocketHandler(hub, validator, testAllowedOrigins)

	req := httptest.NewRequest(http.MethodGet, "/ws?token=invalid-jwt", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	assert.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	assert.Equal(t, 1, validator.calls)
}

func TestWebSocketHandler_HandleWS_ValidToken_NoUpgrade(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	validator := &mockTokenValidator{identity: websocket.Identity{Subject: "auth0|mona", Role: domain.RoleManager}}
	h := NewWebSocketHandler(hub, validator, testAllowedOrigins)

	// Request with valid token but not a WebSocket upgrade request
	req := httptest.NewRequest(http.MethodGet, "/ws?token=valid-jwt", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	// the upgrade fails without upgrade headers, after auth has passed
	assert.Error(t, err)
	_, isHTTPError := err.(*echo.HTTPError)
	assert.False(t, isHTTPError)
}

func TestWebSocketHandler_QueryIdentity(t *testing.T) {
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, nil, testAllowedOrigins)

	tests := []struct {
		name    string
		target  string
		enabled bool
		wantErr bool
	}{
		{"disabled", "/ws?user=alice&role=salesman", false, true},
		{"valid", "/ws?user=alice&role=salesman", true, false},
		{"unknown role", "/ws?user=alice&role=ceo", true, true},
		{"blank user", "/ws?user=%20&role=manager", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.queryIdentity = tt.enabled
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, tt.target, nil), httptest.NewRecorder())

			identity, err := h.identify(c)
			if tt.wantErr {
				assert.ErrorIs(t, err, websocket.ErrInvalidToken)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "alice", identity.Subject)
			assert.Equal(t, domain.RoleSalesman, identity.Role)
		})
	}

	h.AllowQueryIdentity()
	assert.True(t, h.queryIdentity)
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, &mockTokenValidator{}, testAllowedOrigins)

	tests := []struct {
		name     string
		origin   string
		expected bool
	}{
		{"allowed origin", "http://localhost:3000", true},
		{"allowed origin https", "https://salesplan.app", true},
		{"disallowed origin", "https://evil.com", false},
		{"empty origin (same-origin)", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			result := h.checkOrigin(req)
			assert.Equal(t, tt.expected, result)
		})
	}
}

package handler

import (
	"net/http"
	"strings"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/dafibh/salesplan/salesplan-backend/internal/metrics"
	"github.com/dafibh/salesplan/salesplan-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *websocket.Hub
	validator      websocket.TokenValidator
	queryIdentity  bool
	metrics        *metrics.Metrics
	allowedOrigins map[string]bool
	upgrader       ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. validator may be nil when
// only query identities are accepted.
func NewWebSocketHandler(hub *websocket.Hub, validator websocket.TokenValidator, allowedOrigins []string) *WebSocketHandler {
	// Build origin lookup map
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		validator:      validator,
		allowedOrigins: originMap,
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// AllowQueryIdentity accepts ?user=&role= in place of a token, mirroring header auth
func (h *WebSocketHandler) AllowQueryIdentity() {
	h.queryIdentity = true
}

// SetMetrics sets the collectors connected clients are counted on
func (h *WebSocketHandler) SetMetrics(m *metrics.Metrics) {
	h.metrics = m
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Allow requests with no Origin header (e.g., same-origin or non-browser clients)
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().
		Str("origin", origin).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// identify resolves the caller from the token, or from the query identity when allowed
func (h *WebSocketHandler) identify(c echo.Context) (websocket.Identity, error) {
	if token := c.QueryParam("token"); token != "" && h.validator != nil {
		return h.validator.ValidateToken(c.Request().Context(), token)
	}

	if h.queryIdentity {
		user := strings.TrimSpace(c.QueryParam("user"))
		role := domain.Role(c.QueryParam("role"))
		if user != "" && role.IsValid() {
			return websocket.Identity{Subject: user, Role: role}, nil
		}
	}
	return websocket.Identity{}, websocket.ErrInvalidToken
}

// HandleWS handles WebSocket connection requests at GET /ws
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	identity, err := h.identify(c)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket connection rejected: invalid identity")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	// Upgrade HTTP connection to WebSocket
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	// Create client and register with hub
	client := websocket.NewClient(conn, identity, h.hub)
	h.hub.Register(client)
	h.metrics.ClientConnected(1)

	log.Info().
		Str("subject", identity.Subject).
		Str("role", string(identity.Role)).
		Str("client_id", client.ID()).
		Msg("WebSocket client connected")

	// Start read/write pumps in goroutines
	go client.WritePump()
	go func() {
		client.ReadPump()
		h.metrics.ClientConnected(-1)
	}()

	return nil
}

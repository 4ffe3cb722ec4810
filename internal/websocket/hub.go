package websocket

import (
	"errors"
	"sync"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	Role() domain.Role
	Send(data []byte) error
	Close() error
}

// Hub manages WebSocket connections organized by role
// It is safe for concurrent use
type Hub struct {
	// roles maps a role to a map of client ID to client
	roles map[domain.Role]map[string]ClientInterface
	mu    sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		roles: make(map[domain.Role]map[string]ClientInterface),
	}
}

// Register adds a client to the hub under its role
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	role := client.Role()
	clientID := client.ID()

	if h.roles[role] == nil {
		h.roles[role] = make(map[string]ClientInterface)
	}

	h.roles[role][clientID] = client

	log.Debug().
		Str("role", string(role)).
		Str("client_id", clientID).
		Msg("WebSocket client registered")
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	role := client.Role()
	clientID := client.ID()

	if clients, ok := h.roles[role]; ok {
		if _, exists := clients[clientID]; exists {
			delete(clients, clientID)

			// Clean up empty role maps
			if len(clients) == 0 {
				delete(h.roles, role)
			}

			log.Debug().
				Str("role", string(role)).
				Str("client_id", clientID).
				Msg("WebSocket client unregistered")
		}
	}
}

// Broadcast sends an event to every client holding one of roles. No roles means everyone.
func (h *Hub) Broadcast(roles []domain.Role, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	targets := roles
	if len(targets) == 0 {
		targets = make([]domain.Role, 0, len(h.roles))
		for role := range h.roles {
			targets = append(targets, role)
		}
	}

	// Copy clients to avoid holding lock during send
	seen := make(map[domain.Role]bool, len(targets))
	clientsCopy := make([]ClientInterface, 0)
	for _, role := range targets {
		if seen[role] {
			continue
		}
		seen[role] = true
		for _, client := range h.roles[role] {
			clientsCopy = append(clientsCopy, client)
		}
	}
	h.mu.RUnlock()

	if len(clientsCopy) == 0 {
		return
	}

	// Send to each client asynchronously
	for _, client := range clientsCopy {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Str("role", string(c.Role())).
					Str("client_id", c.ID()).
					Msg("Failed to send to client")
			}
		}(client)
	}

	log.Debug().
		Str("event_type", event.Type).
		Int("client_count", len(clientsCopy)).
		Msg("Broadcast event")
}

// ClientCount returns the number of clients connected under a role
func (h *Hub) ClientCount(role domain.Role) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.roles[role]; ok {
		return len(clients)
	}
	return 0
}

// TotalClientCount returns the total number of connected clients across all roles
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.roles {
		total += len(clients)
	}
	return total
}

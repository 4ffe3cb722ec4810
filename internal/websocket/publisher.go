package websocket

import "github.com/dafibh/salesplan/salesplan-backend/internal/domain"

// EventPublisher defines the interface for publishing events to WebSocket clients
type EventPublisher interface {
	// Publish sends an event to clients holding one of roles; no roles means every client
	Publish(roles []domain.Role, event Event)
}

// Ensure Hub implements EventPublisher
var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher by broadcasting the event to the roles
func (h *Hub) Publish(roles []domain.Role, event Event) {
	h.Broadcast(roles, event)
}

// NoOpPublisher is a publisher that does nothing (for testing or when WebSocket is disabled)
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(roles []domain.Role, event Event) {}

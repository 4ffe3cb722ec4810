package websocket

import (
	"testing"
	"time"

	"github.com/dafibh/salesplan/salesplan-backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestHub_Implements_EventPublisher(t *testing.T) {
	// Compile-time check that Hub implements EventPublisher
	var _ EventPublisher = (*Hub)(nil)
}

func TestHub_Publish(t *testing.T) {
	hub := NewHub()

	client := newMockClient("client-1", domain.RoleManager)
	hub.Register(client)

	// Publish event via EventPublisher interface
	var publisher EventPublisher = hub
	event := WorkflowEvent(EventTypeSubmitted, map[string]interface{}{"id": "wf-42"})
	publisher.Publish([]domain.Role{domain.RoleManager}, event)

	assert.Eventually(t, func() bool { return len(client.GetMessages()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestNoOpPublisher_Publish(t *testing.T) {
	publisher := &NoOpPublisher{}

	// Should not panic
	assert.NotPanics(t, func() {
		event := WorkflowEvent(EventTypeApproved, map[string]interface{}{"id": "wf-1"})
		publisher.Publish(nil, event)
	})
}

func TestNoOpPublisher_Implements_EventPublisher(t *testing.T) {
	// Compile-time check that NoOpPublisher implements EventPublisher
	var _ EventPublisher = (*NoOpPublisher)(nil)
}

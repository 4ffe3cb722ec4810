package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to the entity
type EventType string

const (
	EventTypeCreated   EventType = "created"
	EventTypeUpdated   EventType = "updated"
	EventTypeDeleted   EventType = "deleted"
	EventTypeRevised   EventType = "revised"
	EventTypeImported  EventType = "imported"
	EventTypeSubmitted EventType = "submitted"
	EventTypeApproved  EventType = "approved"
	EventTypeRejected  EventType = "rejected"
	EventTypeForwarded EventType = "forwarded"
	EventTypeCommented EventType = "commented"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeWorkflow       EntityType = "workflow"
	EntityTypePlanningEntity EntityType = "planning_entity"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "workflow.approved"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "workflow"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WorkflowEvent creates a workflow.<eventType> event
func WorkflowEvent(eventType EventType, payload interface{}) Event {
	return NewEvent(eventType, EntityTypeWorkflow, payload)
}

// PlanningEntityEvent creates a planning_entity.<eventType> event
func PlanningEntityEvent(eventType EventType, payload interface{}) Event {
	return NewEvent(eventType, EntityTypePlanningEntity, payload)
}

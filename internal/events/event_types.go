package events

import (
	"time"

	"github.com/spec-kit/order-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOrderCreated   EventType = "order_created"
	EventOrderCancelled EventType = "order_cancelled"
	EventOrderUpdated   EventType = "order_updated"
	EventOrderDeleted   EventType = "order_deleted"
	EventUserUpdated    EventType = "user_updated"
	EventUserDeleted    EventType = "user_deleted"
	EventCatalogChanged EventType = "catalog_changed"
)

// Actor identifies who triggered an event.
type Actor struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services. TargetType/TargetID
// name the mutated entity; Details carries free-form context for the audit
// trail.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Actor      Actor          `json:"actor"`
	TargetType string         `json:"target_type"`
	TargetID   *int64         `json:"target_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

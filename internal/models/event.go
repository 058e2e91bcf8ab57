package models

import (
	"time"

	"github.com/google/uuid"
)

// EventLog represents an event log entry
type EventLog struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	AdapterID *uuid.UUID `json:"adapterId,omitempty" db:"adapter_id"`

	Type        EventType  `json:"type" db:"type"`
	Level       EventLevel `json:"level" db:"level"`
	Description string     `json:"description" db:"description"`

	Details Variables `json:"details,omitempty" db:"details"`
}

// EventType represents event types
type EventType string

const (
	// Power-save negotiation events
	EventTypePSRequest  EventType = "PS_REQUEST"
	EventTypePSRejected EventType = "PS_REJECTED"
	EventTypePSConfirm  EventType = "PS_CONFIRM"
	EventTypePSAnomaly  EventType = "PS_ANOMALY"

	// System events
	EventTypeAdapterCreated EventType = "ADAPTER_CREATED"
	EventTypeAdapterDeleted EventType = "ADAPTER_DELETED"
	EventTypeAPICall        EventType = "API_CALL"
)

// EventLevel represents event severity levels
type EventLevel string

const (
	EventLevelDebug   EventLevel = "DEBUG"
	EventLevelInfo    EventLevel = "INFO"
	EventLevelWarning EventLevel = "WARNING"
	EventLevelError   EventLevel = "ERROR"
)

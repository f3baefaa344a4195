package events

import "time"

const AuditTopic = "hr.audit.events"

// AuditEvent is the wire form of an audit entry as published through the
// outbox. Metadata carries state-transition details such as
// previous_status / new_status.
type AuditEvent struct {
	EventType  string         `json:"event_type"`
	RequestID  string         `json:"request_id,omitempty"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

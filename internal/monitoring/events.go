// Package monitoring builds the event payloads published to the monitoring
// topic. Payloads are flat JSON objects so downstream consumers can filter on
// type without a schema registry.
package monitoring

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the decision flow.
const (
	EventRiskDecisionMade = "RISK_DECISION_MADE"
	EventStepUpRequired   = "STEP_UP_REQUIRED"
	EventStepUpVerified   = "STEP_UP_VERIFIED"
)

// Event is a monitoring payload. Extra carries per-type fields merged into the
// top level of the serialized object.
type Event struct {
	Type        string
	UserID      uuid.UUID
	AggregateID uuid.UUID
	Timestamp   time.Time
	Extra       map[string]any
}

// NewEvent builds an event stamped with the current time. aggregateID is the
// decision the event belongs to; keying every lifecycle event by the decision
// keeps them ordered on one partition.
func NewEvent(eventType string, userID, aggregateID uuid.UUID) Event {
	return Event{
		Type:        eventType,
		UserID:      userID,
		AggregateID: aggregateID,
		Timestamp:   time.Now().UTC(),
		Extra:       make(map[string]any),
	}
}

// With adds a per-type field and returns the event for chaining.
func (e Event) With(key string, value any) Event {
	e.Extra[key] = value
	return e
}

// ToJSON serializes the event to the wire form stored in the outbox.
func (e Event) ToJSON() ([]byte, error) {
	payload := map[string]any{
		"type":        e.Type,
		"ts":          e.Timestamp.Format(time.RFC3339),
		"userId":      e.UserID.String(),
		"aggregateId": e.AggregateID.String(),
	}
	for k, v := range e.Extra {
		payload[k] = v
	}
	return json.Marshal(payload)
}

// Package domain defines the outbox event row written in the same transaction
// as the state it describes, then drained asynchronously to the broker.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status of an outbox event.
type Status string

const (
	// StatusNew means the event has never been attempted.
	StatusNew Status = "NEW"
	// StatusFailed means at least one publish attempt failed; the event is
	// retried once its backoff elapses.
	StatusFailed Status = "FAILED"
	// StatusPublished is terminal.
	StatusPublished Status = "PUBLISHED"
)

// Event is one outbox row. The bigserial ID doubles as the dequeue tiebreaker
// so batches drain in insertion order within the same due instant.
type Event struct {
	ID            int64
	AggregateID   uuid.UUID
	EventType     string
	Payload       []byte
	Status        Status
	Attempts      int
	NextAttemptAt time.Time
	CreatedAt     time.Time
	PublishedAt   *time.Time
	LastError     string
}

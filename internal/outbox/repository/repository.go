// Package repository persists outbox events.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"stepup-auth-gateway/internal/outbox/domain"
)

// Repository is the outbox surface. Enqueue joins the caller's business
// transaction; FetchDue locks a batch inside the publisher's own transaction
// so concurrent workers never hand out the same event twice.
type Repository interface {
	Enqueue(ctx context.Context, tx *sql.Tx, aggregateID uuid.UUID, eventType string, payload []byte) error
	FetchDue(ctx context.Context, tx *sql.Tx, now time.Time, limit int) ([]*domain.Event, error)
	MarkPublished(ctx context.Context, tx *sql.Tx, id int64, publishedAt time.Time) error
	MarkFailed(ctx context.Context, tx *sql.Tx, id int64, nextAttemptAt time.Time, lastError string) error
	CountPending(ctx context.Context) (int64, error)
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stepup-auth-gateway/internal/outbox/domain"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) exec(tx *sql.Tx) dbExecutor {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *PostgresRepository) Enqueue(ctx context.Context, tx *sql.Tx, aggregateID uuid.UUID, eventType string, payload []byte) error {
	const q = `
		INSERT INTO outbox_event (aggregate_id, event_type, payload_json, status, attempts, next_attempt_at, created_at)
		VALUES ($1, $2, $3, 'NEW', 0, now(), now())`

	if _, err := r.exec(tx).ExecContext(ctx, q, aggregateID, eventType, payload); err != nil {
		return fmt.Errorf("enqueue outbox event: %w", err)
	}
	return nil
}

// FetchDue claims up to limit due events. SKIP LOCKED lets concurrent
// publishers each take a disjoint batch; the row locks are held until the
// caller's transaction ends.
func (r *PostgresRepository) FetchDue(ctx context.Context, tx *sql.Tx, now time.Time, limit int) ([]*domain.Event, error) {
	const q = `
		SELECT id, aggregate_id, event_type, payload_json, status, attempts,
		       next_attempt_at, created_at, published_at, COALESCE(last_error, '')
		FROM outbox_event
		WHERE status IN ('NEW', 'FAILED') AND next_attempt_at <= $1
		ORDER BY next_attempt_at, id
		LIMIT $2
		FOR UPDATE SKIP LOCKED`

	rows, err := r.exec(tx).QueryContext(ctx, q, now, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch due outbox events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(
			&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.Status,
			&e.Attempts, &e.NextAttemptAt, &e.CreatedAt, &e.PublishedAt, &e.LastError,
		); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox events: %w", err)
	}
	return events, nil
}

func (r *PostgresRepository) MarkPublished(ctx context.Context, tx *sql.Tx, id int64, publishedAt time.Time) error {
	const q = `
		UPDATE outbox_event
		SET status = 'PUBLISHED', published_at = $2, last_error = NULL
		WHERE id = $1`

	if _, err := r.exec(tx).ExecContext(ctx, q, id, publishedAt); err != nil {
		return fmt.Errorf("mark outbox event published: %w", err)
	}
	return nil
}

func (r *PostgresRepository) MarkFailed(ctx context.Context, tx *sql.Tx, id int64, nextAttemptAt time.Time, lastError string) error {
	const q = `
		UPDATE outbox_event
		SET status = 'FAILED', attempts = attempts + 1, next_attempt_at = $2, last_error = $3
		WHERE id = $1`

	if _, err := r.exec(tx).ExecContext(ctx, q, id, nextAttemptAt, lastError); err != nil {
		return fmt.Errorf("mark outbox event failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountPending(ctx context.Context) (int64, error) {
	const q = `SELECT count(*) FROM outbox_event WHERE status IN ('NEW', 'FAILED')`

	var n int64
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending outbox events: %w", err)
	}
	return n, nil
}

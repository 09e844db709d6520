package publisher

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"stepup-auth-gateway/internal/outbox/domain"
	"stepup-auth-gateway/internal/outbox/metrics"
)

func TestBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{8, 256 * time.Second},
		{9, 300 * time.Second},
		{10, 300 * time.Second},
		{20, 300 * time.Second},
		{0, 2 * time.Second},
	}
	for _, tc := range cases {
		if got := Backoff(tc.attempt); got != tc.want {
			t.Errorf("Backoff(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

type fakeRunner struct{}

func (fakeRunner) InTx(_ context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

type fakeRepo struct {
	due       []*domain.Event
	published []int64
	failed    []int64
	nextAt    map[int64]time.Time
	lastErr   map[int64]string
	pending   int64
}

func newFakeRepo(due ...*domain.Event) *fakeRepo {
	return &fakeRepo{
		due:     due,
		nextAt:  make(map[int64]time.Time),
		lastErr: make(map[int64]string),
	}
}

func (r *fakeRepo) Enqueue(_ context.Context, _ *sql.Tx, _ uuid.UUID, _ string, _ []byte) error {
	return nil
}

func (r *fakeRepo) FetchDue(_ context.Context, _ *sql.Tx, _ time.Time, limit int) ([]*domain.Event, error) {
	if len(r.due) > limit {
		return r.due[:limit], nil
	}
	return r.due, nil
}

func (r *fakeRepo) MarkPublished(_ context.Context, _ *sql.Tx, id int64, _ time.Time) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailed(_ context.Context, _ *sql.Tx, id int64, nextAttemptAt time.Time, lastError string) error {
	r.failed = append(r.failed, id)
	r.nextAt[id] = nextAttemptAt
	r.lastErr[id] = lastError
	return nil
}

func (r *fakeRepo) CountPending(_ context.Context) (int64, error) {
	return r.pending, nil
}

type fakeProducer struct {
	sent    []string
	failFor map[string]error
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{failFor: make(map[string]error)}
}

func (p *fakeProducer) Send(_ context.Context, key string, _ []byte) error {
	if err, ok := p.failFor[key]; ok {
		return err
	}
	p.sent = append(p.sent, key)
	return nil
}

func event(id int64, attempts int) *domain.Event {
	return &domain.Event{
		ID:          id,
		AggregateID: uuid.New(),
		EventType:   "RISK_DECISION_MADE",
		Payload:     []byte(`{"type":"RISK_DECISION_MADE"}`),
		Status:      domain.StatusNew,
		Attempts:    attempts,
	}
}

func newTestPublisher(repo *fakeRepo, producer *fakeProducer) *Publisher {
	m := metrics.New(prometheus.NewRegistry())
	return New(fakeRunner{}, repo, producer, zap.NewNop(), m, 50, time.Second)
}

func TestCycle_PublishesBatch(t *testing.T) {
	e1, e2 := event(1, 0), event(2, 0)
	repo := newFakeRepo(e1, e2)
	producer := newFakeProducer()
	p := newTestPublisher(repo, producer)

	n, err := p.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if n != 2 {
		t.Errorf("published = %d, want 2", n)
	}
	if len(repo.published) != 2 || repo.published[0] != 1 || repo.published[1] != 2 {
		t.Errorf("published ids = %v, want [1 2]", repo.published)
	}
	if len(producer.sent) != 2 {
		t.Errorf("sent = %v", producer.sent)
	}
}

func TestCycle_BrokerFailureSchedulesRetry(t *testing.T) {
	e1, e2 := event(1, 0), event(2, 0)
	repo := newFakeRepo(e1, e2)
	producer := newFakeProducer()
	producer.failFor[e1.AggregateID.String()] = errors.New("broker unavailable")
	p := newTestPublisher(repo, producer)

	start := time.Now()
	n, err := p.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if n != 1 {
		t.Errorf("published = %d, want 1", n)
	}
	if len(repo.failed) != 1 || repo.failed[0] != 1 {
		t.Fatalf("failed ids = %v, want [1]", repo.failed)
	}
	if repo.lastErr[1] != "broker unavailable" {
		t.Errorf("lastErr = %q", repo.lastErr[1])
	}
	// First failure waits Backoff(1) = 2s.
	wait := repo.nextAt[1].Sub(start)
	if wait < time.Second || wait > 3*time.Second {
		t.Errorf("retry wait = %v, want ~2s", wait)
	}
	// The failure did not block the second event.
	if len(repo.published) != 1 || repo.published[0] != 2 {
		t.Errorf("published ids = %v, want [2]", repo.published)
	}
}

func TestCycle_RepeatedFailureGrowsBackoff(t *testing.T) {
	e := event(7, 8)
	repo := newFakeRepo(e)
	producer := newFakeProducer()
	producer.failFor[e.AggregateID.String()] = errors.New("still down")
	p := newTestPublisher(repo, producer)

	start := time.Now()
	if _, err := p.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	// Ninth attempt hits the 300s cap.
	wait := repo.nextAt[7].Sub(start)
	if wait < 299*time.Second || wait > 301*time.Second {
		t.Errorf("retry wait = %v, want ~300s", wait)
	}
}

func TestCycle_RespectsBatchLimit(t *testing.T) {
	var due []*domain.Event
	for i := int64(1); i <= 5; i++ {
		due = append(due, event(i, 0))
	}
	repo := newFakeRepo(due...)
	producer := newFakeProducer()
	m := metrics.New(prometheus.NewRegistry())
	p := New(fakeRunner{}, repo, producer, zap.NewNop(), m, 3, time.Second)

	n, err := p.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if n != 3 {
		t.Errorf("published = %d, want 3", n)
	}
}

func TestCycle_EmptyBatch(t *testing.T) {
	repo := newFakeRepo()
	p := newTestPublisher(repo, newFakeProducer())

	n, err := p.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if n != 0 {
		t.Errorf("published = %d, want 0", n)
	}
}

func TestStartStop(t *testing.T) {
	repo := newFakeRepo(event(1, 0))
	producer := newFakeProducer()
	m := metrics.New(prometheus.NewRegistry())
	p := New(fakeRunner{}, repo, producer, zap.NewNop(), m, 50, 10*time.Millisecond)

	p.Start()
	time.Sleep(50 * time.Millisecond)
	p.Stop()

	if len(producer.sent) == 0 {
		t.Error("publisher loop never ran a cycle")
	}
	// Stop is idempotent.
	p.Stop()
}

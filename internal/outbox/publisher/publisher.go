// Package publisher drains the outbox to the broker. It polls on a fixed
// interval, claims a batch of due events, publishes them, and records each
// outcome. Sends happen outside any database transaction so row locks are
// never held across network I/O; delivery is therefore at-least-once.
package publisher

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"stepup-auth-gateway/internal/db"
	"stepup-auth-gateway/internal/outbox/domain"
	"stepup-auth-gateway/internal/outbox/metrics"
	"stepup-auth-gateway/internal/outbox/repository"
)

const (
	backoffBase = 2 * time.Second
	backoffMax  = 300 * time.Second
	maxShift    = 10
)

// Backoff returns the wait before retry attempt n (1-based): exponential,
// clamped to [2s, 300s]. The exponent is capped so large attempt counts
// cannot overflow the shift.
func Backoff(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	if n > maxShift {
		n = maxShift
	}
	d := time.Duration(int64(1)<<n) * time.Second
	if d < backoffBase {
		return backoffBase
	}
	if d > backoffMax {
		return backoffMax
	}
	return d
}

// Producer publishes one message to the broker and blocks for acknowledgement.
type Producer interface {
	Send(ctx context.Context, key string, value []byte) error
}

type Publisher struct {
	runner    db.TxRunner
	repo      repository.Repository
	producer  Producer
	logger    *zap.Logger
	metrics   *metrics.Metrics
	batchSize int
	interval  time.Duration
	now       func() time.Time

	stop chan struct{}
	done sync.WaitGroup
	once sync.Once
}

func New(runner db.TxRunner, repo repository.Repository, producer Producer, logger *zap.Logger, m *metrics.Metrics, batchSize int, interval time.Duration) *Publisher {
	return &Publisher{
		runner:    runner,
		repo:      repo,
		producer:  producer,
		logger:    logger,
		metrics:   m,
		batchSize: batchSize,
		interval:  interval,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
}

// Start launches the polling loop. Multiple publisher processes can run
// against the same table; SKIP LOCKED keeps their claimed batches disjoint.
func (p *Publisher) Start() {
	p.done.Add(1)
	go p.run()
	p.logger.Info("outbox publisher started",
		zap.Duration("interval", p.interval),
		zap.Int("batch_size", p.batchSize))
}

// Stop halts the loop and waits for the in-flight cycle to finish.
func (p *Publisher) Stop() {
	p.once.Do(func() { close(p.stop) })
	p.done.Wait()
	p.logger.Info("outbox publisher stopped")
}

func (p *Publisher) run() {
	defer p.done.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			if _, err := p.Cycle(context.Background()); err != nil {
				p.logger.Error("outbox cycle failed", zap.Error(err))
			}
		}
	}
}

// Cycle runs one publish pass and reports how many events it published. The
// batch is claimed in one short transaction; each event is then sent and its
// outcome recorded in its own short transaction, so a broker failure on one
// event schedules its retry without blocking the rest of the batch.
func (p *Publisher) Cycle(ctx context.Context) (int, error) {
	ctx, span := otel.Tracer("outbox").Start(ctx, "outbox.cycle")
	defer span.End()

	var events []*domain.Event
	err := p.runner.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		events, err = p.repo.FetchDue(ctx, tx, p.now(), p.batchSize)
		return err
	})
	if err != nil {
		return 0, err
	}
	if p.metrics != nil {
		p.metrics.BatchSize.Observe(float64(len(events)))
	}

	published := 0
	for _, e := range events {
		if err := p.publishOne(ctx, e); err != nil {
			p.logger.Error("recording outbox outcome failed",
				zap.Int64("event_id", e.ID), zap.Error(err))
			continue
		}
		if e.Status == domain.StatusPublished {
			published++
		}
	}
	span.SetAttributes(attribute.Int("outbox.published", published))

	if p.metrics != nil {
		if pending, err := p.repo.CountPending(ctx); err == nil {
			p.metrics.Pending.Set(float64(pending))
		}
	}
	return published, nil
}

// publishOne sends one event and records the outcome on its row. Only the
// bookkeeping write can return an error; a broker failure is absorbed into a
// scheduled retry.
func (p *Publisher) publishOne(ctx context.Context, e *domain.Event) error {
	if err := p.producer.Send(ctx, e.AggregateID.String(), e.Payload); err != nil {
		attempt := e.Attempts + 1
		next := p.now().Add(Backoff(attempt))
		p.logger.Warn("outbox publish failed",
			zap.Int64("event_id", e.ID),
			zap.String("event_type", e.EventType),
			zap.Int("attempt", attempt),
			zap.Time("next_attempt_at", next),
			zap.Error(err))
		if p.metrics != nil {
			p.metrics.Failures.Inc()
		}
		e.Status = domain.StatusFailed
		return p.runner.InTx(ctx, func(tx *sql.Tx) error {
			return p.repo.MarkFailed(ctx, tx, e.ID, next, err.Error())
		})
	}

	if err := p.runner.InTx(ctx, func(tx *sql.Tx) error {
		return p.repo.MarkPublished(ctx, tx, e.ID, p.now())
	}); err != nil {
		return err
	}
	e.Status = domain.StatusPublished
	if p.metrics != nil {
		p.metrics.Published.Inc()
	}
	p.logger.Debug("outbox event published",
		zap.Int64("event_id", e.ID),
		zap.String("event_type", e.EventType))
	return nil
}

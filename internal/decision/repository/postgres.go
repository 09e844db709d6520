package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stepup-auth-gateway/internal/decision/domain"
)

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse stored amount %q: %w", s, err)
	}
	return d, nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PostgresDecisionRepository struct {
	db *sql.DB
}

func NewPostgresDecisionRepository(db *sql.DB) *PostgresDecisionRepository {
	return &PostgresDecisionRepository{db: db}
}

func (r *PostgresDecisionRepository) exec(tx *sql.Tx) dbExecutor {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *PostgresDecisionRepository) Create(ctx context.Context, tx *sql.Tx, d *domain.RiskDecision) error {
	const q = `
		INSERT INTO risk_decision (id, user_id, action_type, amount, device_hash, country,
		                           risk_score, risk_level, decision, step_up_required, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.exec(tx).ExecContext(ctx, q,
		d.ID, d.UserID, d.ActionType, d.Amount.String(), d.DeviceHash, d.Country,
		d.RiskScore, string(d.RiskLevel), string(d.Decision), d.StepUpRequired, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("create risk decision: %w", err)
	}
	return nil
}

func (r *PostgresDecisionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RiskDecision, error) {
	const q = `
		SELECT id, user_id, action_type, amount, device_hash, country,
		       risk_score, risk_level, decision, step_up_required, step_up_challenge_id, created_at
		FROM risk_decision
		WHERE id = $1`

	var (
		d      domain.RiskDecision
		amount string
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.UserID, &d.ActionType, &amount, &d.DeviceHash, &d.Country,
		&d.RiskScore, &d.RiskLevel, &d.Decision, &d.StepUpRequired, &d.StepUpChallengeID, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get risk decision: %w", err)
	}
	if d.Amount, err = parseAmount(amount); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PostgresDecisionRepository) SetChallenge(ctx context.Context, tx *sql.Tx, decisionID, challengeID uuid.UUID) error {
	const q = `UPDATE risk_decision SET step_up_challenge_id = $2 WHERE id = $1`

	if _, err := r.exec(tx).ExecContext(ctx, q, decisionID, challengeID); err != nil {
		return fmt.Errorf("set decision challenge: %w", err)
	}
	return nil
}

func (r *PostgresDecisionRepository) SetDecision(ctx context.Context, tx *sql.Tx, decisionID uuid.UUID, decision domain.Decision) error {
	const q = `UPDATE risk_decision SET decision = $2 WHERE id = $1`

	if _, err := r.exec(tx).ExecContext(ctx, q, decisionID, string(decision)); err != nil {
		return fmt.Errorf("set decision outcome: %w", err)
	}
	return nil
}

type PostgresChallengeRepository struct {
	db *sql.DB
}

func NewPostgresChallengeRepository(db *sql.DB) *PostgresChallengeRepository {
	return &PostgresChallengeRepository{db: db}
}

func (r *PostgresChallengeRepository) exec(tx *sql.Tx) dbExecutor {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *PostgresChallengeRepository) Create(ctx context.Context, tx *sql.Tx, c *domain.StepUpChallenge) error {
	const q = `
		INSERT INTO step_up_challenge (id, user_id, decision_id, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(tx).ExecContext(ctx, q, c.ID, c.UserID, c.DecisionID, string(c.Status), c.Attempts, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create step-up challenge: %w", err)
	}
	return nil
}

func (r *PostgresChallengeRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*domain.StepUpChallenge, error) {
	const q = `
		SELECT id, user_id, decision_id, status, attempts, created_at, verified_at
		FROM step_up_challenge
		WHERE id = $1 AND user_id = $2`

	var c domain.StepUpChallenge
	err := r.db.QueryRowContext(ctx, q, id, userID).Scan(
		&c.ID, &c.UserID, &c.DecisionID, &c.Status, &c.Attempts, &c.CreatedAt, &c.VerifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get step-up challenge: %w", err)
	}
	return &c, nil
}

func (r *PostgresChallengeRepository) MarkVerified(ctx context.Context, tx *sql.Tx, id uuid.UUID, verifiedAt time.Time) error {
	const q = `UPDATE step_up_challenge SET status = 'VERIFIED', verified_at = $2 WHERE id = $1`

	if _, err := r.exec(tx).ExecContext(ctx, q, id, verifiedAt); err != nil {
		return fmt.Errorf("mark challenge verified: %w", err)
	}
	return nil
}

// Package repository persists risk decisions and step-up challenges.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"stepup-auth-gateway/internal/decision/domain"
)

// DecisionRepository persists risk decisions. Reads return (nil, nil) when no
// row matches.
type DecisionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, d *domain.RiskDecision) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RiskDecision, error)
	SetChallenge(ctx context.Context, tx *sql.Tx, decisionID, challengeID uuid.UUID) error
	SetDecision(ctx context.Context, tx *sql.Tx, decisionID uuid.UUID, decision domain.Decision) error
}

// ChallengeRepository persists step-up challenges.
type ChallengeRepository interface {
	Create(ctx context.Context, tx *sql.Tx, c *domain.StepUpChallenge) error
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*domain.StepUpChallenge, error)
	MarkVerified(ctx context.Context, tx *sql.Tx, id uuid.UUID, verifiedAt time.Time) error
}

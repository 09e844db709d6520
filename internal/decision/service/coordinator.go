// Package service implements the decision flow: scoring an action against the
// user's trust baseline, opening a step-up challenge when the risk is high,
// and resolving that challenge on a successful OTP.
package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"stepup-auth-gateway/internal/db"
	"stepup-auth-gateway/internal/decision/domain"
	"stepup-auth-gateway/internal/decision/repository"
	"stepup-auth-gateway/internal/monitoring"
	"stepup-auth-gateway/internal/risk"
	"stepup-auth-gateway/internal/signal"
)

// TrustLedger is the trust surface the decision flow consumes.
type TrustLedger interface {
	IsDeviceTrusted(ctx context.Context, userID uuid.UUID, deviceHash string) (bool, error)
	IsNewCountry(ctx context.Context, userID uuid.UUID, country string) (bool, error)
	Trust(ctx context.Context, tx *sql.Tx, userID uuid.UUID, deviceHash, country string) error
}

// OTPStore issues and checks one-time codes.
type OTPStore interface {
	GenerateAndStore(ctx context.Context, challengeID uuid.UUID) (string, error)
	Verify(ctx context.Context, challengeID uuid.UUID, code string) error
}

// EventQueue enqueues monitoring events inside the caller's transaction.
type EventQueue interface {
	Enqueue(ctx context.Context, tx *sql.Tx, aggregateID uuid.UUID, eventType string, payload []byte) error
}

// AuthorizeResult is the outcome of scoring one action.
type AuthorizeResult struct {
	Decision    domain.Decision
	DecisionID  uuid.UUID
	RiskScore   int
	RiskLevel   risk.Level
	ChallengeID *uuid.UUID
	// OTPPreview carries the raw code only when the developer-preview flag
	// is on; it is never set otherwise.
	OTPPreview string
}

// Coordinator scores actions and opens step-up challenges.
type Coordinator struct {
	runner     db.TxRunner
	decisions  repository.DecisionRepository
	challenges repository.ChallengeRepository
	ledger     TrustLedger
	engine     *risk.Engine
	otp        OTPStore
	events     EventQueue
	logger     *zap.Logger
	devPreview bool
	now        func() time.Time
}

func NewCoordinator(
	runner db.TxRunner,
	decisions repository.DecisionRepository,
	challenges repository.ChallengeRepository,
	ledger TrustLedger,
	engine *risk.Engine,
	otp OTPStore,
	events EventQueue,
	logger *zap.Logger,
	devPreview bool,
) *Coordinator {
	return &Coordinator{
		runner:     runner,
		decisions:  decisions,
		challenges: challenges,
		ledger:     ledger,
		engine:     engine,
		otp:        otp,
		events:     events,
		logger:     logger,
		devPreview: devPreview,
		now:        time.Now,
	}
}

// Authorize scores one action. The decision row, any challenge row, and the
// outbox events commit in a single transaction; only the OTP write to the
// ephemeral store sits outside it, best-effort.
func (c *Coordinator) Authorize(ctx context.Context, userID uuid.UUID, deviceID, country, actionType string, amount decimal.Decimal) (*AuthorizeResult, error) {
	ctx, span := otel.Tracer("decision").Start(ctx, "decision.authorize")
	defer span.End()

	if strings.TrimSpace(deviceID) == "" {
		return nil, ErrInvalidDevice
	}
	country = strings.ToUpper(strings.TrimSpace(country))
	if len(country) != 2 {
		return nil, ErrInvalidCountry
	}

	deviceHash := signal.HashDeviceID(deviceID)

	trusted, err := c.ledger.IsDeviceTrusted(ctx, userID, deviceHash)
	if err != nil {
		return nil, err
	}
	newCountry, err := c.ledger.IsNewCountry(ctx, userID, country)
	if err != nil {
		return nil, err
	}

	assessment := c.engine.Assess(!trusted, newCountry, amount)

	dec := &domain.RiskDecision{
		ID:             uuid.New(),
		UserID:         userID,
		ActionType:     actionType,
		Amount:         amount,
		DeviceHash:     deviceHash,
		Country:        country,
		RiskScore:      assessment.Score,
		RiskLevel:      assessment.Level,
		StepUpRequired: assessment.StepUpRequired,
		CreatedAt:      c.now(),
	}

	result := &AuthorizeResult{
		DecisionID: dec.ID,
		RiskScore:  assessment.Score,
		RiskLevel:  assessment.Level,
	}

	var challengeID uuid.UUID
	if assessment.StepUpRequired {
		dec.Decision = domain.DecisionStepUpRequired
		challengeID = uuid.New()
		err = c.runner.InTx(ctx, func(tx *sql.Tx) error {
			// The challenge references the decision without a foreign
			// key; the decision insert must precede it.
			if err := c.decisions.Create(ctx, tx, dec); err != nil {
				return err
			}
			challenge := &domain.StepUpChallenge{
				ID:         challengeID,
				UserID:     userID,
				DecisionID: dec.ID,
				Status:     domain.ChallengePending,
				CreatedAt:  c.now(),
			}
			if err := c.challenges.Create(ctx, tx, challenge); err != nil {
				return err
			}
			if err := c.decisions.SetChallenge(ctx, tx, dec.ID, challengeID); err != nil {
				return err
			}
			if err := c.enqueueDecisionMade(ctx, tx, dec, assessment); err != nil {
				return err
			}
			return c.enqueueStepUpRequired(ctx, tx, dec, challengeID, assessment)
		})
		if err != nil {
			return nil, err
		}
		result.Decision = domain.DecisionStepUpRequired
		result.ChallengeID = &challengeID

		// Best-effort: a code that fails to store leaves a committed
		// challenge the user cannot verify; they restart step-up.
		code, otpErr := c.otp.GenerateAndStore(ctx, challengeID)
		if otpErr != nil {
			c.logger.Error("otp generation failed after challenge commit",
				zap.String("challenge_id", challengeID.String()),
				zap.Error(otpErr))
		} else if c.devPreview {
			result.OTPPreview = code
		}

		c.logger.Info("step-up required",
			zap.String("decision_id", dec.ID.String()),
			zap.String("challenge_id", challengeID.String()),
			zap.Int("risk_score", assessment.Score))
		return result, nil
	}

	dec.Decision = domain.DecisionApproved
	err = c.runner.InTx(ctx, func(tx *sql.Tx) error {
		if err := c.decisions.Create(ctx, tx, dec); err != nil {
			return err
		}
		if err := c.ledger.Trust(ctx, tx, userID, deviceHash, country); err != nil {
			return err
		}
		return c.enqueueDecisionMade(ctx, tx, dec, assessment)
	})
	if err != nil {
		return nil, err
	}
	result.Decision = domain.DecisionApproved

	c.logger.Info("action approved",
		zap.String("decision_id", dec.ID.String()),
		zap.Int("risk_score", assessment.Score))
	return result, nil
}

func (c *Coordinator) enqueueDecisionMade(ctx context.Context, tx *sql.Tx, dec *domain.RiskDecision, a risk.Assessment) error {
	payload, err := monitoring.NewEvent(monitoring.EventRiskDecisionMade, dec.UserID, dec.ID).
		With("riskScore", a.Score).
		With("riskLevel", string(a.Level)).
		With("reasons", a.Reasons).
		With("decision", string(dec.Decision)).
		ToJSON()
	if err != nil {
		return err
	}
	return c.events.Enqueue(ctx, tx, dec.ID, monitoring.EventRiskDecisionMade, payload)
}

func (c *Coordinator) enqueueStepUpRequired(ctx context.Context, tx *sql.Tx, dec *domain.RiskDecision, challengeID uuid.UUID, a risk.Assessment) error {
	payload, err := monitoring.NewEvent(monitoring.EventStepUpRequired, dec.UserID, dec.ID).
		With("challengeId", challengeID.String()).
		With("riskScore", a.Score).
		With("reasons", a.Reasons).
		ToJSON()
	if err != nil {
		return err
	}
	// Keyed by the decision so all lifecycle events for one decision land
	// on the same partition, in order.
	return c.events.Enqueue(ctx, tx, dec.ID, monitoring.EventStepUpRequired, payload)
}

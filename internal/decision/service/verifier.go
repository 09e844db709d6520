package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"stepup-auth-gateway/internal/db"
	"stepup-auth-gateway/internal/decision/domain"
	"stepup-auth-gateway/internal/decision/repository"
	"stepup-auth-gateway/internal/monitoring"
)

// VerifyResult reports a resolved challenge.
type VerifyResult struct {
	Status     domain.ChallengeStatus
	DecisionID uuid.UUID
}

// Verifier resolves step-up challenges against submitted OTP codes.
type Verifier struct {
	runner     db.TxRunner
	decisions  repository.DecisionRepository
	challenges repository.ChallengeRepository
	ledger     TrustLedger
	otp        OTPStore
	events     EventQueue
	logger     *zap.Logger
	now        func() time.Time
}

func NewVerifier(
	runner db.TxRunner,
	decisions repository.DecisionRepository,
	challenges repository.ChallengeRepository,
	ledger TrustLedger,
	otp OTPStore,
	events EventQueue,
	logger *zap.Logger,
) *Verifier {
	return &Verifier{
		runner:     runner,
		decisions:  decisions,
		challenges: challenges,
		ledger:     ledger,
		otp:        otp,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// Verify consumes a submitted code for a pending challenge. OTP failures
// propagate unchanged so the transport layer can map each kind. On success the
// challenge, its parent decision, the trust baseline, and the verification
// event all commit together.
func (v *Verifier) Verify(ctx context.Context, userID, challengeID uuid.UUID, code string) (*VerifyResult, error) {
	ctx, span := otel.Tracer("decision").Start(ctx, "decision.verify")
	defer span.End()

	challenge, err := v.challenges.GetByIDAndUser(ctx, challengeID, userID)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, ErrChallengeNotFound
	}
	if challenge.Status != domain.ChallengePending {
		return nil, ErrChallengeNotPending
	}

	if err := v.otp.Verify(ctx, challengeID, code); err != nil {
		return nil, err
	}

	dec, err := v.decisions.GetByID(ctx, challenge.DecisionID)
	if err != nil {
		return nil, err
	}
	if dec == nil {
		return nil, ErrDecisionNotFound
	}

	err = v.runner.InTx(ctx, func(tx *sql.Tx) error {
		if err := v.challenges.MarkVerified(ctx, tx, challengeID, v.now()); err != nil {
			return err
		}
		if err := v.decisions.SetDecision(ctx, tx, dec.ID, domain.DecisionApproved); err != nil {
			return err
		}
		// Trust the signals recorded at decision time, not re-derived
		// ones: the user proved control of exactly that device/country.
		if err := v.ledger.Trust(ctx, tx, userID, dec.DeviceHash, dec.Country); err != nil {
			return err
		}
		payload, err := monitoring.NewEvent(monitoring.EventStepUpVerified, userID, dec.ID).
			With("challengeId", challengeID.String()).
			With("decision", string(domain.DecisionApproved)).
			ToJSON()
		if err != nil {
			return err
		}
		return v.events.Enqueue(ctx, tx, dec.ID, monitoring.EventStepUpVerified, payload)
	})
	if err != nil {
		return nil, err
	}

	v.logger.Info("step-up verified",
		zap.String("challenge_id", challengeID.String()),
		zap.String("decision_id", dec.ID.String()))
	return &VerifyResult{
		Status:     domain.ChallengeVerified,
		DecisionID: dec.ID,
	}, nil
}

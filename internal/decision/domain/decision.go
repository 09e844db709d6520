// Package domain holds the risk decision and step-up challenge entities.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stepup-auth-gateway/internal/risk"
)

// Decision is the final outcome recorded on a risk decision.
type Decision string

const (
	DecisionApproved       Decision = "APPROVED"
	DecisionStepUpRequired Decision = "STEP_UP_REQUIRED"
)

// ChallengeStatus tracks the step-up challenge lifecycle. PENDING is the only
// non-terminal state; an expired or locked-out challenge stays PENDING and is
// simply never verifiable again.
type ChallengeStatus string

const (
	ChallengePending  ChallengeStatus = "PENDING"
	ChallengeVerified ChallengeStatus = "VERIFIED"
)

// RiskDecision is one scored action. DeviceHash and Country are the normalized
// signals captured at decision time; trust updates after a verified step-up
// reuse these stored values rather than re-deriving them.
type RiskDecision struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	ActionType        string
	Amount            decimal.Decimal
	DeviceHash        string
	Country           string
	RiskScore         int
	RiskLevel         risk.Level
	Decision          Decision
	StepUpRequired    bool
	StepUpChallengeID *uuid.UUID
	CreatedAt         time.Time
}

// StepUpChallenge is the OTP challenge gating a risky decision.
type StepUpChallenge struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	DecisionID uuid.UUID
	Status     ChallengeStatus
	// Attempts is a durable snapshot; the live counter lives in Redis
	// next to the code.
	Attempts   int
	CreatedAt  time.Time
	VerifiedAt *time.Time
}

// Package risk scores actions from trust signals. The engine is a fixed additive
// rule-weight scorer: each triggered signal contributes its configured weight and
// the sum is bucketed into a level.
package risk

import "github.com/shopspring/decimal"

// Level is the coarse risk bucket derived from the numeric score.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// Signal names reported in Assessment.Reasons, in trigger order.
const (
	ReasonNewDevice  = "NEW_DEVICE"
	ReasonNewCountry = "NEW_COUNTRY"
	ReasonHighAmount = "HIGH_AMOUNT"
)

// Weights holds the scoring configuration. Immutable once the engine is built.
type Weights struct {
	NewDeviceScore       int
	NewCountryScore      int
	HighAmountScore      int
	HighAmountThreshold  decimal.Decimal
	StepUpScoreThreshold int
}

// Assessment is the outcome of scoring one action.
type Assessment struct {
	Score          int
	Level          Level
	StepUpRequired bool
	// Reasons lists the triggered signal names in order; for audit and
	// monitoring payloads, not used for scoring.
	Reasons []string
}

// Engine scores actions. Stateless given its weights; safe for concurrent use.
type Engine struct {
	w Weights
}

// NewEngine returns an Engine with the given weights.
func NewEngine(w Weights) *Engine {
	return &Engine{w: w}
}

// Assess scores one action. Pure: same inputs always produce the same assessment.
// A zero amount never triggers HIGH_AMOUNT (unless the threshold itself is zero or negative).
func (e *Engine) Assess(isNewDevice, isNewCountry bool, amount decimal.Decimal) Assessment {
	score := 0
	reasons := make([]string, 0, 3)
	if isNewDevice {
		score += e.w.NewDeviceScore
		reasons = append(reasons, ReasonNewDevice)
	}
	if isNewCountry {
		score += e.w.NewCountryScore
		reasons = append(reasons, ReasonNewCountry)
	}
	if amount.GreaterThanOrEqual(e.w.HighAmountThreshold) {
		score += e.w.HighAmountScore
		reasons = append(reasons, ReasonHighAmount)
	}

	level := LevelLow
	switch {
	case score >= e.w.StepUpScoreThreshold:
		level = LevelHigh
	case score >= e.w.StepUpScoreThreshold/2:
		level = LevelMedium
	}

	return Assessment{
		Score:          score,
		Level:          level,
		StepUpRequired: score >= e.w.StepUpScoreThreshold,
		Reasons:        reasons,
	}
}

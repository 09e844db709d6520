package service

import "errors"

var (
	// ErrInvalidDevice means the device signal header was missing or blank.
	ErrInvalidDevice = errors.New("device id is required")
	// ErrInvalidCountry means the country signal was not a 2-letter code.
	ErrInvalidCountry = errors.New("country must be a 2-letter code")
	// ErrChallengeNotFound means no challenge matches the (user, id) pair.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrChallengeNotPending means the challenge was already resolved.
	// Verification is not idempotent: a second verify on a resolved
	// challenge is rejected, not silently accepted.
	ErrChallengeNotPending = errors.New("challenge already resolved")
	// ErrDecisionNotFound means the decision row referenced by a challenge
	// is missing.
	ErrDecisionNotFound = errors.New("decision not found")
)

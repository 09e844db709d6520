// Package otp issues and verifies one-time codes for step-up challenges.
// Codes live only in Redis under a TTL; expiry is enforced by the keyspace,
// not by application clocks.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrExpired means no code exists for the challenge: it expired, was
	// already consumed, or was never issued.
	ErrExpired = errors.New("otp expired or not found")
	// ErrAttemptsExceeded means the attempt budget is spent. The code stays
	// in Redis until its TTL, but no further match is ever evaluated.
	ErrAttemptsExceeded = errors.New("otp attempts exceeded")
	// ErrInvalidCode means the submitted code did not match.
	ErrInvalidCode = errors.New("invalid otp code")
)

type Store struct {
	client      *redis.Client
	ttl         time.Duration
	maxAttempts int
}

func NewStore(client *redis.Client, ttl time.Duration, maxAttempts int) *Store {
	return &Store{client: client, ttl: ttl, maxAttempts: maxAttempts}
}

func codeKey(challengeID uuid.UUID) string {
	return "otp:" + challengeID.String()
}

func attemptsKey(challengeID uuid.UUID) string {
	return "otp_attempts:" + challengeID.String()
}

// GenerateAndStore mints a fresh 6-digit code for the challenge and stores it
// with the configured TTL, resetting the attempt counter. Re-issuing for the
// same challenge overwrites the previous code.
func (s *Store) GenerateAndStore(ctx context.Context, challengeID uuid.UUID) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, codeKey(challengeID), code, s.ttl)
	pipe.Set(ctx, attemptsKey(challengeID), 0, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks a submitted code. Every call consumes one attempt before the
// code is compared, so guesses burn the budget even when wrong. On success
// both keys are deleted, making the code single-use.
func (s *Store) Verify(ctx context.Context, challengeID uuid.UUID, code string) error {
	stored, err := s.client.Get(ctx, codeKey(challengeID)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrExpired
	}
	if err != nil {
		return fmt.Errorf("read otp: %w", err)
	}

	attempts, err := s.client.Incr(ctx, attemptsKey(challengeID)).Result()
	if err != nil {
		return fmt.Errorf("count otp attempt: %w", err)
	}
	if attempts > int64(s.maxAttempts) {
		return ErrAttemptsExceeded
	}

	if stored != code {
		return ErrInvalidCode
	}

	if err := s.client.Del(ctx, codeKey(challengeID), attemptsKey(challengeID)).Err(); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

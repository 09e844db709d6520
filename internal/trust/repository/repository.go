// Package repository persists the trust baseline.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"stepup-auth-gateway/internal/trust/domain"
)

// DeviceRepository persists trusted devices. Writes accept an optional *sql.Tx so
// the upsert can join the caller's transaction; a nil tx uses the pool directly.
type DeviceRepository interface {
	Get(ctx context.Context, userID uuid.UUID, deviceHash string) (*domain.TrustedDevice, error)
	Upsert(ctx context.Context, tx *sql.Tx, d *domain.TrustedDevice) error
}

// CountryRepository persists country profiles.
type CountryRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.CountryProfile, error)
	Upsert(ctx context.Context, tx *sql.Tx, p *domain.CountryProfile) error
}

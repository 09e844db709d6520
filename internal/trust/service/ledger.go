// Package service exposes the trust ledger: the read/write surface the decision
// flow uses to check and extend a user's device and country baseline.
package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"stepup-auth-gateway/internal/trust/domain"
	"stepup-auth-gateway/internal/trust/repository"
)

type Ledger struct {
	devices   repository.DeviceRepository
	countries repository.CountryRepository
	now       func() time.Time
}

func NewLedger(devices repository.DeviceRepository, countries repository.CountryRepository) *Ledger {
	return &Ledger{
		devices:   devices,
		countries: countries,
		now:       time.Now,
	}
}

// IsDeviceTrusted reports whether the user has an entry for this device hash.
func (l *Ledger) IsDeviceTrusted(ctx context.Context, userID uuid.UUID, deviceHash string) (bool, error) {
	d, err := l.devices.Get(ctx, userID, deviceHash)
	if err != nil {
		return false, err
	}
	return d != nil, nil
}

// IsNewCountry reports whether the country differs from the user's profile.
// A user with no profile yet is not treated as acting from a new country,
// so first-time users are not penalized for having no history.
func (l *Ledger) IsNewCountry(ctx context.Context, userID uuid.UUID, country string) (bool, error) {
	p, err := l.countries.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, nil
	}
	return !strings.EqualFold(p.LastCountry, country), nil
}

// Trust records the device and country as part of the user's baseline. Both
// writes are idempotent upserts, so re-trusting an already-known pair only
// refreshes timestamps. Callers pass their transaction to keep the baseline
// update atomic with the rest of the flow.
func (l *Ledger) Trust(ctx context.Context, tx *sql.Tx, userID uuid.UUID, deviceHash, country string) error {
	now := l.now()
	if err := l.devices.Upsert(ctx, tx, &domain.TrustedDevice{
		UserID:      userID,
		DeviceHash:  deviceHash,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}); err != nil {
		return err
	}
	return l.countries.Upsert(ctx, tx, &domain.CountryProfile{
		UserID:      userID,
		LastCountry: strings.ToUpper(country),
		UpdatedAt:   now,
	})
}

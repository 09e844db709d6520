package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"stepup-auth-gateway/internal/trust/domain"
)

// dbExecutor is satisfied by both *sql.DB and *sql.Tx.
type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PostgresDeviceRepository struct {
	db *sql.DB
}

func NewPostgresDeviceRepository(db *sql.DB) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db}
}

func (r *PostgresDeviceRepository) exec(tx *sql.Tx) dbExecutor {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *PostgresDeviceRepository) Get(ctx context.Context, userID uuid.UUID, deviceHash string) (*domain.TrustedDevice, error) {
	const q = `
		SELECT user_id, device_hash, first_seen_at, last_seen_at
		FROM trusted_device
		WHERE user_id = $1 AND device_hash = $2`

	var d domain.TrustedDevice
	err := r.db.QueryRowContext(ctx, q, userID, deviceHash).
		Scan(&d.UserID, &d.DeviceHash, &d.FirstSeenAt, &d.LastSeenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get trusted device: %w", err)
	}
	return &d, nil
}

func (r *PostgresDeviceRepository) Upsert(ctx context.Context, tx *sql.Tx, d *domain.TrustedDevice) error {
	const q = `
		INSERT INTO trusted_device (user_id, device_hash, first_seen_at, last_seen_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, device_hash)
		DO UPDATE SET last_seen_at = EXCLUDED.last_seen_at`

	if _, err := r.exec(tx).ExecContext(ctx, q, d.UserID, d.DeviceHash, d.FirstSeenAt, d.LastSeenAt); err != nil {
		return fmt.Errorf("upsert trusted device: %w", err)
	}
	return nil
}

type PostgresCountryRepository struct {
	db *sql.DB
}

func NewPostgresCountryRepository(db *sql.DB) *PostgresCountryRepository {
	return &PostgresCountryRepository{db: db}
}

func (r *PostgresCountryRepository) exec(tx *sql.Tx) dbExecutor {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *PostgresCountryRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.CountryProfile, error) {
	const q = `
		SELECT user_id, last_country, updated_at
		FROM country_profile
		WHERE user_id = $1`

	var p domain.CountryProfile
	err := r.db.QueryRowContext(ctx, q, userID).
		Scan(&p.UserID, &p.LastCountry, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get country profile: %w", err)
	}
	return &p, nil
}

func (r *PostgresCountryRepository) Upsert(ctx context.Context, tx *sql.Tx, p *domain.CountryProfile) error {
	const q = `
		INSERT INTO country_profile (user_id, last_country, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET last_country = EXCLUDED.last_country, updated_at = EXCLUDED.updated_at`

	if _, err := r.exec(tx).ExecContext(ctx, q, p.UserID, p.LastCountry, p.UpdatedAt); err != nil {
		return fmt.Errorf("upsert country profile: %w", err)
	}
	return nil
}

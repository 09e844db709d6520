package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"stepup-auth-gateway/internal/trust/domain"
)

type memDeviceRepo struct {
	devices map[string]*domain.TrustedDevice
}

func newMemDeviceRepo() *memDeviceRepo {
	return &memDeviceRepo{devices: make(map[string]*domain.TrustedDevice)}
}

func deviceKey(userID uuid.UUID, hash string) string {
	return userID.String() + "/" + hash
}

func (r *memDeviceRepo) Get(_ context.Context, userID uuid.UUID, deviceHash string) (*domain.TrustedDevice, error) {
	return r.devices[deviceKey(userID, deviceHash)], nil
}

func (r *memDeviceRepo) Upsert(_ context.Context, _ *sql.Tx, d *domain.TrustedDevice) error {
	key := deviceKey(d.UserID, d.DeviceHash)
	if existing, ok := r.devices[key]; ok {
		existing.LastSeenAt = d.LastSeenAt
		return nil
	}
	cp := *d
	r.devices[key] = &cp
	return nil
}

type memCountryRepo struct {
	profiles map[uuid.UUID]*domain.CountryProfile
}

func newMemCountryRepo() *memCountryRepo {
	return &memCountryRepo{profiles: make(map[uuid.UUID]*domain.CountryProfile)}
}

func (r *memCountryRepo) Get(_ context.Context, userID uuid.UUID) (*domain.CountryProfile, error) {
	return r.profiles[userID], nil
}

func (r *memCountryRepo) Upsert(_ context.Context, _ *sql.Tx, p *domain.CountryProfile) error {
	cp := *p
	r.profiles[p.UserID] = &cp
	return nil
}

func newTestLedger() (*Ledger, *memDeviceRepo, *memCountryRepo) {
	devices := newMemDeviceRepo()
	countries := newMemCountryRepo()
	return NewLedger(devices, countries), devices, countries
}

func TestIsDeviceTrusted(t *testing.T) {
	ledger, _, _ := newTestLedger()
	ctx := context.Background()
	userID := uuid.New()

	trusted, err := ledger.IsDeviceTrusted(ctx, userID, "hash-1")
	if err != nil {
		t.Fatalf("IsDeviceTrusted: %v", err)
	}
	if trusted {
		t.Error("unknown device should not be trusted")
	}

	if err := ledger.Trust(ctx, nil, userID, "hash-1", "US"); err != nil {
		t.Fatalf("Trust: %v", err)
	}

	trusted, err = ledger.IsDeviceTrusted(ctx, userID, "hash-1")
	if err != nil {
		t.Fatalf("IsDeviceTrusted: %v", err)
	}
	if !trusted {
		t.Error("device should be trusted after Trust")
	}

	// A different user with the same hash is still untrusted.
	trusted, _ = ledger.IsDeviceTrusted(ctx, uuid.New(), "hash-1")
	if trusted {
		t.Error("trust must be scoped per user")
	}
}

func TestIsNewCountry_NoProfile(t *testing.T) {
	ledger, _, _ := newTestLedger()

	isNew, err := ledger.IsNewCountry(context.Background(), uuid.New(), "US")
	if err != nil {
		t.Fatalf("IsNewCountry: %v", err)
	}
	if isNew {
		t.Error("a user without a profile should not trigger the country signal")
	}
}

func TestIsNewCountry_MatchAndMismatch(t *testing.T) {
	ledger, _, _ := newTestLedger()
	ctx := context.Background()
	userID := uuid.New()

	if err := ledger.Trust(ctx, nil, userID, "hash-1", "US"); err != nil {
		t.Fatalf("Trust: %v", err)
	}

	isNew, err := ledger.IsNewCountry(ctx, userID, "US")
	if err != nil {
		t.Fatalf("IsNewCountry: %v", err)
	}
	if isNew {
		t.Error("same country should not be new")
	}

	// Comparison is case-insensitive.
	isNew, _ = ledger.IsNewCountry(ctx, userID, "us")
	if isNew {
		t.Error("country comparison should be case-insensitive")
	}

	isNew, _ = ledger.IsNewCountry(ctx, userID, "DE")
	if !isNew {
		t.Error("different country should be new")
	}
}

func TestTrust_Idempotent(t *testing.T) {
	ledger, devices, countries := newTestLedger()
	ctx := context.Background()
	userID := uuid.New()

	if err := ledger.Trust(ctx, nil, userID, "hash-1", "us"); err != nil {
		t.Fatalf("Trust: %v", err)
	}
	first := devices.devices[deviceKey(userID, "hash-1")].FirstSeenAt

	if err := ledger.Trust(ctx, nil, userID, "hash-1", "US"); err != nil {
		t.Fatalf("second Trust: %v", err)
	}
	if len(devices.devices) != 1 {
		t.Errorf("device rows = %d, want 1", len(devices.devices))
	}
	if got := devices.devices[deviceKey(userID, "hash-1")].FirstSeenAt; !got.Equal(first) {
		t.Error("re-trusting should not rewrite first_seen_at")
	}

	// Country is stored uppercased.
	if got := countries.profiles[userID].LastCountry; got != "US" {
		t.Errorf("LastCountry = %q, want US", got)
	}
}

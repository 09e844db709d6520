// Package domain holds the trust-baseline entities: devices and countries a user
// has previously demonstrated through safe or verified actions.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrustedDevice records that a user has used a device (stored as a hash) before.
type TrustedDevice struct {
	UserID      uuid.UUID
	DeviceHash  string
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

// CountryProfile records the last country a user acted from that was trusted.
type CountryProfile struct {
	UserID      uuid.UUID
	LastCountry string
	UpdatedAt   time.Time
}

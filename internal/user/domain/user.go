// Package domain holds the user entity.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role names carried in tokens.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is a registered account. Roles are stored comma-separated in one column
// and split at the repository boundary.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

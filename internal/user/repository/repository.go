// Package repository persists users.
package repository

import (
	"context"

	"github.com/google/uuid"

	"stepup-auth-gateway/internal/user/domain"
)

// Repository persists users. Reads return (nil, nil) when no row matches.
type Repository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// Package service implements registration and login.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stepup-auth-gateway/internal/security"
	"stepup-auth-gateway/internal/user/domain"
	"stepup-auth-gateway/internal/user/repository"
)

var (
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username taken")
	// ErrInvalidCredentials is returned on a bad username/password pair.
	// One error for both cases so responses do not leak which part failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRegistration is returned for a blank username or password.
	ErrInvalidRegistration = errors.New("username and password are required")
)

// LoginResult carries the issued token.
type LoginResult struct {
	UserID    uuid.UUID
	Username  string
	Roles     []string
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	users  repository.Repository
	hasher *security.Hasher
	tokens *security.TokenProvider
	logger *zap.Logger
}

func NewAuthService(users repository.Repository, hasher *security.Hasher, tokens *security.TokenProvider, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates an account with the USER role. The literal username
// "admin" also receives ADMIN, bootstrapping a first operator account in
// development setups.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidRegistration
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}

	roles := []string{domain.RoleUser}
	if username == "admin" {
		roles = append(roles, domain.RoleAdmin)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID.String()))
	return u, nil
}

// Login verifies credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.IssueAccess(u.ID.String(), u.Username, u.Roles)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		UserID:    u.ID,
		Username:  u.Username,
		Roles:     u.Roles,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// GetByID loads a user for the authenticated-profile endpoint.
func (s *AuthService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

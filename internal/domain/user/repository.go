package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists accounts
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByEmail expects a normalized address
	FindByEmail(ctx context.Context, email string) (*User, error)
	MarkEmailConfirmed(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Purpose scopes a one-time token
type Purpose string

const (
	PurposeConfirmEmail  Purpose = "confirm"
	PurposeResetPassword Purpose = "reset"
)

// TokenStore keeps one-time email tokens and the revoked token id list
type TokenStore interface {
	Issue(ctx context.Context, purpose Purpose, userID uuid.UUID, ttl time.Duration) (string, error)
	// Consume returns the token's user and deletes it; ErrInvalidToken when unknown
	Consume(ctx context.Context, purpose Purpose, token string) (uuid.UUID, error)
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Mailer sends account emails
type Mailer interface {
	SendConfirmation(ctx context.Context, to, link string) error
	SendPasswordReset(ctx context.Context, to, link string) error
	SendPasswordChanged(ctx context.Context, to string) error
}

// ProfileProvisioner creates the profile that accompanies an account
type ProfileProvisioner interface {
	Provision(ctx context.Context, userID uuid.UUID, email, fullName string) error
}

// SessionInvalidator drops cached session state after account changes
type SessionInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

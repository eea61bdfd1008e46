package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshTokenStore defines persistence operations for refresh tokens.
// The store generates token strings itself; callers own the lifecycle
// policy (TTLs, rotation rules).
type RefreshTokenStore interface {
	Create(ctx context.Context, userID int64, ttl time.Duration) (RefreshToken, error)
	GetByToken(ctx context.Context, token string) (RefreshToken, error)
	Revoke(ctx context.Context, token string, actor string) error
	// Rotate revokes oldToken and creates a replacement for userID as a
	// single atomic unit. It fails with ErrTokenRevoked when oldToken was
	// already revoked, so at most one of two concurrent rotations of the
	// same token can succeed.
	Rotate(ctx context.Context, oldToken string, actor string, userID int64, ttl time.Duration) (RefreshToken, error)
}

// RefreshToken is an opaque, single-use-per-rotation credential record.
// Records are never deleted; revocation flips RevokedAt once.
type RefreshToken struct {
	ID        uuid.UUID
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
	RevokedBy *string
}

// Expired reports whether the token's validity window has passed.
func (t RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Active reports whether the token may still be exchanged.
func (t RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && !t.Expired(now)
}

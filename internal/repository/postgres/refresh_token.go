package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/estatehub/auth-service/internal/model"
	"github.com/estatehub/auth-service/internal/security"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

// createAttempts bounds retries on a generated-token collision.
const createAttempts = 2

type RefreshTokenRepository struct {
	db *Connection
}

func NewRefreshTokenRepository(db *Connection) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, userID int64, ttl time.Duration) (model.RefreshToken, error) {
	for attempt := 0; attempt < createAttempts; attempt++ {
		rt, err := r.insert(ctx, r.db, userID, ttl)
		if err == nil {
			return rt, nil
		}
		if !errors.Is(err, model.ErrTokenConflict) {
			return model.RefreshToken{}, err
		}
	}
	return model.RefreshToken{}, model.ErrTokenConflict
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (model.RefreshToken, error) {
	const query = `
        SELECT id, token, user_id, expires_at, created_at, revoked_at, revoked_by
        FROM refresh_tokens WHERE token = $1
    `
	var rt model.RefreshToken
	err := r.db.QueryRow(ctx, query, token).Scan(
		&rt.ID, &rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt, &rt.RevokedAt, &rt.RevokedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshToken{}, model.ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return rt, nil
}

// Revoke flips the revoked flag once. Revoking an already-revoked token is a
// no-op, not an error.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string, actor string) error {
	const query = `
        UPDATE refresh_tokens SET revoked_at = now(), revoked_by = $2
        WHERE token = $1 AND revoked_at IS NULL
    `
	if _, err := r.db.Exec(ctx, query, token, actor); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// Rotate revokes oldToken and inserts its replacement in one transaction.
// The guarded update makes rotation a compare-and-swap: when two calls race
// on the same token, the second sees zero updated rows and fails with
// ErrTokenRevoked while the transaction rolls back.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldToken string, actor string, userID int64, ttl time.Duration) (model.RefreshToken, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("failed to begin rotation: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const revokeQuery = `
        UPDATE refresh_tokens SET revoked_at = now(), revoked_by = $2
        WHERE token = $1 AND revoked_at IS NULL
    `
	tag, err := tx.Exec(ctx, revokeQuery, oldToken, actor)
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("failed to revoke rotated token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.RefreshToken{}, model.ErrTokenRevoked
	}

	rt, err := r.insert(ctx, tx, userID, ttl)
	if err != nil {
		return model.RefreshToken{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.RefreshToken{}, fmt.Errorf("failed to commit rotation: %w", err)
	}

	return rt, nil
}

type execQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *RefreshTokenRepository) insert(ctx context.Context, q execQuerier, userID int64, ttl time.Duration) (model.RefreshToken, error) {
	tokenString, err := security.GenerateRefreshToken()
	if err != nil {
		return model.RefreshToken{}, err
	}

	const query = `
        INSERT INTO refresh_tokens (id, token, user_id, expires_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id, token, user_id, expires_at, created_at, revoked_at, revoked_by
    `
	var rt model.RefreshToken
	err = q.QueryRow(ctx, query, uuid.New(), tokenString, userID, time.Now().Add(ttl)).Scan(
		&rt.ID, &rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt, &rt.RevokedAt, &rt.RevokedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.RefreshToken{}, model.ErrTokenConflict
		}
		return model.RefreshToken{}, fmt.Errorf("failed to create refresh token: %w", err)
	}
	return rt, nil
}

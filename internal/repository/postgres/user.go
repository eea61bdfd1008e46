package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/estatehub/auth-service/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const uniqueViolation = "23505"

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (username, email, password_hash, first_name, last_name, phone_number, role, is_active, is_email_verified)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id, username, email, password_hash, first_name, last_name, phone_number, role, is_active, is_email_verified, created_at, updated_at`

	var savedUser model.User
	err := r.db.QueryRow(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.PhoneNumber, user.Role, user.IsActive, user.IsEmailVerified,
	).Scan(
		&savedUser.ID, &savedUser.Username, &savedUser.Email, &savedUser.PasswordHash,
		&savedUser.FirstName, &savedUser.LastName, &savedUser.PhoneNumber, &savedUser.Role,
		&savedUser.IsActive, &savedUser.IsEmailVerified, &savedUser.CreatedAt, &savedUser.UpdatedAt,
	)
	if err != nil {
		// Duplicate checks run before insert, so a unique violation here is
		// a race lost to a concurrent registration.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case "users_email_key":
				return model.User{}, model.NewValidationError("email is already in use")
			case "users_username_key":
				return model.User{}, model.NewValidationError("username is already in use")
			}
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return savedUser, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (model.User, error) {
	query := `SELECT id, username, email, password_hash, first_name, last_name, phone_number, role, is_active, is_email_verified, created_at, updated_at
			  FROM users WHERE id = $1`

	user, err := r.scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// GetByIdentifier resolves a user by username or email.
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	query := `SELECT id, username, email, password_hash, first_name, last_name, phone_number, role, is_active, is_email_verified, created_at, updated_at
			  FROM users WHERE username = $1 OR email = $1`

	user, err := r.scanUser(r.db.QueryRow(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by identifier: %w", err)
	}

	return user, nil
}

// UpdatePasswordHash replaces the stored hash only if it still equals
// currentHash, so concurrent password changes cannot silently overwrite
// each other. Returns ErrNotFound when no row matches.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int64, currentHash, newHash string) error {
	query := `UPDATE users SET password_hash = $3, updated_at = now()
			  WHERE id = $1 AND password_hash = $2`

	tag, err := r.db.Exec(ctx, query, id, currentHash, newHash)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.PhoneNumber, &user.Role,
		&user.IsActive, &user.IsEmailVerified, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

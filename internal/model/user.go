package model

import (
	"context"
	"time"
)

// Roles assignable to a user account.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
	RoleAgent = "Agent"
)

// UserStore defines persistence operations for user accounts.
type UserStore interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByIdentifier(ctx context.Context, identifier string) (User, error)
	UpdatePasswordHash(ctx context.Context, id int64, currentHash, newHash string) error
}

// User represents a stored account with its credential material.
// PasswordHash is the encoded argon2id blob, never the raw password.
type User struct {
	ID              int64
	Username        string
	Email           string
	PasswordHash    string
	FirstName       *string
	LastName        *string
	PhoneNumber     *string
	Role            string
	IsActive        bool
	IsEmailVerified bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

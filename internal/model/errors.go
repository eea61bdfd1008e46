package model

import "errors"

var (
	// ErrNotFound signals a missing record.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials covers every login-time failure: unknown
	// identifier, wrong password, inactive account. Callers must not
	// distinguish these cases to avoid account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrTokenRevoked = errors.New("refresh token revoked")
	ErrTokenExpired = errors.New("refresh token expired")

	// ErrTokenConflict signals a generated token collided with an existing
	// one even after retrying. Practically unreachable with 64 random bytes.
	ErrTokenConflict = errors.New("refresh token collision")
)

// ValidationError is a user-correctable input failure: malformed fields or
// duplicate username/email.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

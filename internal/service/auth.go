package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/estatehub/auth-service/internal/logger"
	"github.com/estatehub/auth-service/internal/model"
)

// Revocation actors recorded on refresh-token records.
const (
	actorRotation = "rotation"
	actorLogout   = "logout"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 100
	minPasswordLength = 8
)

// CredentialHasher performs one-way password hashing and verification.
type CredentialHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
}

// TokenIssuer builds and signs short-lived access tokens.
type TokenIssuer interface {
	Issue(user model.User) (token string, expiresAt time.Time, err error)
}

// Session is the composite result of a successful authentication.
type Session struct {
	AccessToken          string
	AccessTokenExpiresAt time.Time
	RefreshToken         string
	User                 model.User
}

// RegisterParams carries registration input.
type RegisterParams struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       *string
	LastName        *string
	PhoneNumber     *string
}

// Auth orchestrates registration, login, refresh rotation and logout on top
// of the user store, the refresh-token store, the hasher and the issuer.
// It is the sole writer of credential state.
type Auth struct {
	users      model.UserStore
	tokens     model.RefreshTokenStore
	hasher     CredentialHasher
	issuer     TokenIssuer
	refreshTTL time.Duration
	logger     *logger.Logger
}

func NewAuth(
	users model.UserStore,
	tokens model.RefreshTokenStore,
	hasher CredentialHasher,
	issuer TokenIssuer,
	refreshTTL time.Duration,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		users:      users,
		tokens:     tokens,
		hasher:     hasher,
		issuer:     issuer,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// Register validates input, checks for duplicates, persists the user and
// issues a first session.
func (a *Auth) Register(ctx context.Context, params RegisterParams) (Session, error) {
	a.logger.Debug("Auth service: starting user registration",
		"username", params.Username,
		"email", params.Email)

	if err := validateRegistration(params); err != nil {
		return Session{}, err
	}

	// Duplicate checks before insert. A registration racing in between is
	// caught by the store's uniqueness constraint and surfaced as the same
	// validation error.
	if err := a.checkIdentifierFree(ctx, params.Username, "username is already in use"); err != nil {
		return Session{}, err
	}
	if err := a.checkIdentifierFree(ctx, params.Email, "email is already in use"); err != nil {
		return Session{}, err
	}

	passwordHash, err := a.hasher.Hash(params.Password)
	if err != nil {
		return Session{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := a.users.Create(ctx, model.User{
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: passwordHash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PhoneNumber:  params.PhoneNumber,
		Role:         model.RoleUser,
		IsActive:     true,
	})
	if err != nil {
		a.logger.Error("Auth service: failed to create user",
			"username", params.Username,
			"error", err.Error())
		return Session{}, err
	}

	a.logger.Info("Auth service: user registered",
		"user_id", user.ID,
		"username", user.Username)

	return a.issueSession(ctx, user)
}

// Login resolves the user by username or email and verifies the password.
// Unknown identifier, wrong password and inactive account all fail with the
// same ErrInvalidCredentials.
func (a *Auth) Login(ctx context.Context, identifier, password string) (Session, error) {
	a.logger.Debug("Auth service: starting login", "identifier", identifier)

	user, err := a.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Session{}, model.ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("failed to get user by identifier: %w", err)
	}

	if !a.hasher.Verify(password, user.PasswordHash) {
		return Session{}, model.ErrInvalidCredentials
	}

	if !user.IsActive {
		return Session{}, model.ErrInvalidCredentials
	}

	a.logger.Info("Auth service: login succeeded", "user_id", user.ID)

	return a.issueSession(ctx, user)
}

// RefreshTokens exchanges an active refresh token for a new session. The
// presented token is revoked and replaced atomically; a concurrent second
// exchange of the same token loses the race and fails.
func (a *Auth) RefreshTokens(ctx context.Context, presentedToken string) (Session, error) {
	rt, err := a.tokens.GetByToken(ctx, presentedToken)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Session{}, model.ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("failed to resolve refresh token: %w", err)
	}

	if rt.RevokedAt != nil {
		a.logger.Info("Auth service: revoked refresh token presented", "user_id", rt.UserID)
		return Session{}, model.ErrTokenRevoked
	}
	if rt.Expired(time.Now()) {
		return Session{}, model.ErrTokenExpired
	}

	user, err := a.users.GetByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Session{}, model.ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("failed to get token owner: %w", err)
	}
	if !user.IsActive {
		return Session{}, model.ErrInvalidCredentials
	}

	// Access token issuance is stateless, so it happens before the rotation
	// commits: a signing failure must not leave the old token revoked.
	accessToken, expiresAt, err := a.issuer.Issue(user)
	if err != nil {
		return Session{}, fmt.Errorf("failed to issue access token: %w", err)
	}

	newRT, err := a.tokens.Rotate(ctx, presentedToken, actorRotation, user.ID, a.refreshTTL)
	if err != nil {
		if errors.Is(err, model.ErrTokenRevoked) {
			// Lost a race against a concurrent rotation of the same token.
			a.logger.Info("Auth service: refresh token reuse detected", "user_id", user.ID)
			return Session{}, model.ErrTokenRevoked
		}
		return Session{}, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	a.logger.Info("Auth service: refresh token rotated", "user_id", user.ID)

	return Session{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: expiresAt,
		RefreshToken:         newRT.Token,
		User:                 user,
	}, nil
}

// Logout revokes the presented refresh token when it resolves to a record.
// It never fails visibly: an unknown or already-revoked token is a no-op.
func (a *Auth) Logout(ctx context.Context, presentedToken string) {
	if presentedToken == "" {
		return
	}

	if err := a.tokens.Revoke(ctx, presentedToken, actorLogout); err != nil {
		a.logger.Error("Auth service: failed to revoke token on logout",
			"error", err.Error())
	}
}

// ChangePassword verifies the current password and replaces the stored hash.
// Outstanding refresh tokens stay valid.
func (a *Auth) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return model.NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrInvalidCredentials
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !a.hasher.Verify(currentPassword, user.PasswordHash) {
		return model.ErrInvalidCredentials
	}

	newHash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	// The guarded update fails when another change landed since the read,
	// which also means the verified current password is no longer current.
	if err := a.users.UpdatePasswordHash(ctx, userID, user.PasswordHash, newHash); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrInvalidCredentials
		}
		return fmt.Errorf("failed to update password hash: %w", err)
	}

	a.logger.Info("Auth service: password changed", "user_id", userID)

	return nil
}

// GetUser returns the profile for an authenticated subject.
func (a *Auth) GetUser(ctx context.Context, userID int64) (model.User, error) {
	return a.users.GetByID(ctx, userID)
}

func (a *Auth) issueSession(ctx context.Context, user model.User) (Session, error) {
	accessToken, expiresAt, err := a.issuer.Issue(user)
	if err != nil {
		return Session{}, fmt.Errorf("failed to issue access token: %w", err)
	}

	rt, err := a.tokens.Create(ctx, user.ID, a.refreshTTL)
	if err != nil {
		return Session{}, fmt.Errorf("failed to create refresh token: %w", err)
	}

	return Session{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: expiresAt,
		RefreshToken:         rt.Token,
		User:                 user,
	}, nil
}

func (a *Auth) checkIdentifierFree(ctx context.Context, identifier, message string) error {
	_, err := a.users.GetByIdentifier(ctx, identifier)
	if err == nil {
		return model.NewValidationError(message)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to check identifier: %w", err)
	}
	return nil
}

func validateRegistration(params RegisterParams) error {
	if params.Username == "" || params.Email == "" || params.Password == "" {
		return model.NewValidationError("username, email and password are required")
	}
	if len(params.Username) < minUsernameLength || len(params.Username) > maxUsernameLength {
		return model.NewValidationError(fmt.Sprintf("username must be %d-%d characters", minUsernameLength, maxUsernameLength))
	}
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return model.NewValidationError("email is not valid")
	}
	if len(params.Password) < minPasswordLength {
		return model.NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if params.Password != params.ConfirmPassword {
		return model.NewValidationError("passwords do not match")
	}
	return nil
}

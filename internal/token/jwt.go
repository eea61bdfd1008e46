package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/estatehub/auth-service/internal/model"
)

// MinSecretLength is the minimum accepted HMAC signing secret size in bytes.
const MinSecretLength = 32

var (
	ErrSecretTooShort = fmt.Errorf("jwt signing secret must be at least %d bytes", MinSecretLength)
	ErrInvalidTTL     = errors.New("access token ttl must be positive")
)

// Claims carried by an access token. The claim set is fixed at issuance:
// subject id, username, email, role, plus registered jti/iat/exp/iss/aud.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// UserID returns the numeric subject of the claims.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token subject %q: %w", c.Subject, err)
	}
	return id, nil
}

// JWT issues and validates HMAC-SHA-256 signed access tokens.
type JWT struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewJWT validates the signing configuration eagerly: a short secret or
// non-positive TTL is rejected here, at startup, not on first request.
func NewJWT(secret, issuer, audience string, ttl time.Duration) (*JWT, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	return &JWT{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}, nil
}

// Issue builds and signs a short-lived access token for user.
func (j *JWT) Issue(user model.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
			Issuer:    j.issuer,
			Audience:  jwt.ClaimStrings{j.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})

	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, expiresAt, nil
}

// Parse validates signature, expiry, issuer and audience of a presented
// access token and returns its claims.
func (j *JWT) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithIssuer(j.issuer), jwt.WithAudience(j.audience))
	if err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("access token is invalid")
	}
	return claims, nil
}

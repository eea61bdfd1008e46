// Package mocks provides testify mocks for the store and crypto interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/estatehub/auth-service/internal/model"
)

type UserStore struct {
	mock.Mock
}

func (m *UserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByID(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	args := m.Called(ctx, identifier)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) UpdatePasswordHash(ctx context.Context, id int64, currentHash, newHash string) error {
	args := m.Called(ctx, id, currentHash, newHash)
	return args.Error(0)
}

type RefreshTokenStore struct {
	mock.Mock
}

func (m *RefreshTokenStore) Create(ctx context.Context, userID int64, ttl time.Duration) (model.RefreshToken, error) {
	args := m.Called(ctx, userID, ttl)
	return args.Get(0).(model.RefreshToken), args.Error(1)
}

func (m *RefreshTokenStore) GetByToken(ctx context.Context, token string) (model.RefreshToken, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.RefreshToken), args.Error(1)
}

func (m *RefreshTokenStore) Revoke(ctx context.Context, token string, actor string) error {
	args := m.Called(ctx, token, actor)
	return args.Error(0)
}

func (m *RefreshTokenStore) Rotate(ctx context.Context, oldToken string, actor string, userID int64, ttl time.Duration) (model.RefreshToken, error) {
	args := m.Called(ctx, oldToken, actor, userID, ttl)
	return args.Get(0).(model.RefreshToken), args.Error(1)
}

type CredentialHasher struct {
	mock.Mock
}

func (m *CredentialHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *CredentialHasher) Verify(password, encodedHash string) bool {
	args := m.Called(password, encodedHash)
	return args.Bool(0)
}

type TokenIssuer struct {
	mock.Mock
}

func (m *TokenIssuer) Issue(user model.User) (string, time.Time, error) {
	args := m.Called(user)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

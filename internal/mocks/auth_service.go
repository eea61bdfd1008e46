package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/estatehub/auth-service/internal/model"
	"github.com/estatehub/auth-service/internal/service"
)

type AuthService struct {
	mock.Mock
}

func (m *AuthService) Register(ctx context.Context, params service.RegisterParams) (service.Session, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(service.Session), args.Error(1)
}

func (m *AuthService) Login(ctx context.Context, identifier, password string) (service.Session, error) {
	args := m.Called(ctx, identifier, password)
	return args.Get(0).(service.Session), args.Error(1)
}

func (m *AuthService) RefreshTokens(ctx context.Context, presentedToken string) (service.Session, error) {
	args := m.Called(ctx, presentedToken)
	return args.Get(0).(service.Session), args.Error(1)
}

func (m *AuthService) Logout(ctx context.Context, presentedToken string) {
	m.Called(ctx, presentedToken)
}

func (m *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	args := m.Called(ctx, userID, currentPassword, newPassword)
	return args.Error(0)
}

func (m *AuthService) GetUser(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.User), args.Error(1)
}

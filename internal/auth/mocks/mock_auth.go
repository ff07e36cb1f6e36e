package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"resourcehub/internal/auth"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (auth.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(auth.Identity), args.Error(1)
}

type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) CreateUser(ctx context.Context, email, password, name string) (auth.User, error) {
	args := m.Called(ctx, email, password, name)
	return args.Get(0).(auth.User), args.Error(1)
}

func (m *MockAccounts) SignInWithPassword(ctx context.Context, email, password string) (auth.Tokens, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(auth.Tokens), args.Error(1)
}

func (m *MockAccounts) Refresh(ctx context.Context, refreshToken string) (auth.Tokens, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(auth.Tokens), args.Error(1)
}

package mocks

import (
	"context"
	"time"

	"QH_quranhabits/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockAuthRepository struct {
	mock.Mock
}

func (m *MockAuthRepository) CreateUser(ctx context.Context, user *model.User, passwordHash string) error {
	args := m.Called(ctx, user, passwordHash)
	return args.Error(0)
}

func (m *MockAuthRepository) GetUserCredentials(ctx context.Context, email string) (*model.User, string, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*model.User), args.String(1), args.Error(2)
}

func (m *MockAuthRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func (m *MockAuthRepository) CreateSession(ctx context.Context, session *model.AuthSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockAuthRepository) GetSession(ctx context.Context, id uuid.UUID) (*model.AuthSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthSession), args.Error(1)
}

func (m *MockAuthRepository) RevokeSession(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockAuthRepository) RevokeUserSessions(ctx context.Context, userID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

func (m *MockAuthRepository) CreatePasswordReset(ctx context.Context, reset *model.PasswordReset) error {
	args := m.Called(ctx, reset)
	return args.Error(0)
}

func (m *MockAuthRepository) ConsumePasswordReset(ctx context.Context, tokenHash string, at time.Time) (uuid.UUID, error) {
	args := m.Called(ctx, tokenHash, at)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	args := m.Called(ctx, to, name, token)
	return args.Error(0)
}

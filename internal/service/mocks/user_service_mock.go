package mocks

import (
	"context"
	"time"

	"go-gin-event-ticketing/internal/model"

	"github.com/stretchr/testify/mock"
)

type UserServiceMock struct {
	mock.Mock
}

func NewUserServiceMock() *UserServiceMock {
	return &UserServiceMock{}
}

func (m *UserServiceMock) Me(ctx context.Context, userID int) (*model.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *UserServiceMock) LinkProvider(ctx context.Context, userID int, token string, expiry *time.Time) error {
	args := m.Called(ctx, userID, token, expiry)
	return args.Error(0)
}

package mocks

import (
	"context"
	"encoding/json"

	"go-gin-event-ticketing/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type WebinarServiceMock struct {
	mock.Mock
}

func NewWebinarServiceMock() *WebinarServiceMock {
	return &WebinarServiceMock{}
}

func (m *WebinarServiceMock) Create(ctx context.Context, userID int, eventID uuid.UUID) (*model.WebinarIDs, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WebinarIDs), args.Error(1)
}

func (m *WebinarServiceMock) Get(ctx context.Context, userID int, eventID uuid.UUID) (*model.WebinarIDs, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WebinarIDs), args.Error(1)
}

func (m *WebinarServiceMock) ListChat(ctx context.Context, userID int, eventID uuid.UUID) (json.RawMessage, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *WebinarServiceMock) PostChat(ctx context.Context, userID int, eventID uuid.UUID, text string) (json.RawMessage, error) {
	args := m.Called(ctx, userID, eventID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

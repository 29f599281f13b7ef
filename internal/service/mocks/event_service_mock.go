package mocks

import (
	"context"

	"go-gin-event-ticketing/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type EventServiceMock struct {
	mock.Mock
}

func NewEventServiceMock() *EventServiceMock {
	return &EventServiceMock{}
}

func (m *EventServiceMock) event(args mock.Arguments) (*model.Event, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventServiceMock) Create(ctx context.Context, userID int, params model.CreateEventParams) (*model.Event, error) {
	return m.event(m.Called(ctx, userID, params))
}

func (m *EventServiceMock) List(ctx context.Context, limit, offset int) ([]*model.Event, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Event), args.Error(1)
}

func (m *EventServiceMock) Get(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	return m.event(m.Called(ctx, eventID))
}

func (m *EventServiceMock) Update(ctx context.Context, userID int, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	return m.event(m.Called(ctx, userID, eventID, params))
}

func (m *EventServiceMock) Delete(ctx context.Context, userID int, eventID uuid.UUID) error {
	args := m.Called(ctx, userID, eventID)
	return args.Error(0)
}

func (m *EventServiceMock) Publish(ctx context.Context, userID int, eventID uuid.UUID) (*model.Event, error) {
	return m.event(m.Called(ctx, userID, eventID))
}

func (m *EventServiceMock) Cancel(ctx context.Context, userID int, eventID uuid.UUID) (*model.Event, error) {
	return m.event(m.Called(ctx, userID, eventID))
}

func (m *EventServiceMock) Complete(ctx context.Context, userID int, eventID uuid.UUID) (*model.Event, error) {
	return m.event(m.Called(ctx, userID, eventID))
}

func (m *EventServiceMock) Like(ctx context.Context, eventID uuid.UUID) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

func (m *EventServiceMock) AddComment(ctx context.Context, userID int, eventID uuid.UUID, text string) (*model.Comment, error) {
	args := m.Called(ctx, userID, eventID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *EventServiceMock) ListComments(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]*model.Comment, error) {
	args := m.Called(ctx, eventID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Comment), args.Error(1)
}

func (m *EventServiceMock) Sales(ctx context.Context, userID int, eventID uuid.UUID) (*model.SalesSummary, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SalesSummary), args.Error(1)
}

package service

import (
	"context"
	"fmt"

	"go-gin-event-ticketing/internal/authz"
	"go-gin-event-ticketing/internal/cache"
	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/repository"
	apperrors "go-gin-event-ticketing/pkg/app_errors"
	"go-gin-event-ticketing/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type EventService interface {
	Create(ctx context.Context, userID int, params model.CreateEventParams) (*model.Event, error)
	List(ctx context.Context, limit, offset int) ([]*model.Event, error)
	Get(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	Update(ctx context.Context, userID int, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error)
	Delete(ctx context.Context, userID int, eventID uuid.UUID) error
	// Publish 開賣：draft -> published，並預熱 Redis 入場閘門
	Publish(ctx context.Context, userID int, eventID uuid.UUID) (*model.Event, error)
	Cancel(ctx context.Context, userID int, eventID uuid.UUID) (*model.Event, error)
	Complete(ctx context.Context, userID int, eventID uuid.UUID) (*model.Event, error)
	Like(ctx context.Context, eventID uuid.UUID) (int, error)
	AddComment(ctx context.Context, userID int, eventID uuid.UUID, text string) (*model.Comment, error)
	ListComments(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]*model.Comment, error)
	Sales(ctx context.Context, userID int, eventID uuid.UUID) (*model.SalesSummary, error)
}

type EventServiceImpl struct {
	users     repository.UserRepository
	repo      repository.EventRepository
	inventory cache.EventInventory
	policy    *authz.Policy
}

// NewEventService inventory 可為 nil（不使用 Redis 入場閘門）
func NewEventService(users repository.UserRepository, repo repository.EventRepository, inventory cache.EventInventory, policy *authz.Policy) EventService {
	return &EventServiceImpl{users: users, repo: repo, inventory: inventory, policy: policy}
}

func (s *EventServiceImpl) Create(ctx context.Context, userID int, params model.CreateEventParams) (*model.Event, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(authz.SubjectOf(user), authz.ActionEventCreate, nil); err != nil {
		return nil, err
	}
	if params.TicketPrice < 0 || params.MaxParticipants < 1 {
		return nil, apperrors.ErrInvalidInput
	}

	return s.repo.Create(ctx, &model.Event{
		EventID:         uuid.New(),
		CreatorID:       user.ID,
		Title:           params.Title,
		Description:     params.Description,
		OrganizedBy:     params.OrganizedBy,
		EventDate:       params.EventDate.UTC(),
		EventTime:       params.EventTime,
		Location:        params.Location,
		Image:           params.Image,
		TicketPrice:     params.TicketPrice,
		MaxParticipants: params.MaxParticipants,
		Status:          model.EventStatusDraft,
	})
}

func (s *EventServiceImpl) List(ctx context.Context, limit, offset int) ([]*model.Event, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.List(ctx, limit, offset)
}

func (s *EventServiceImpl) Get(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	return s.repo.FindByEventID(ctx, eventID)
}

func (s *EventServiceImpl) Update(ctx context.Context, userID int, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	event, err := s.managedEvent(ctx, userID, eventID, authz.ActionEventManage)
	if err != nil {
		return nil, err
	}
	if params.IsEmpty() {
		return event, nil
	}

	updated, err := s.repo.Update(ctx, eventID, params)
	if err != nil {
		return nil, err
	}
	if params.MaxParticipants != nil && updated.Status == model.EventStatusPublished {
		s.warmUp(ctx, updated)
	}
	return updated, nil
}

func (s *EventServiceImpl) Delete(ctx context.Context, userID int, eventID uuid.UUID) error {
	if _, err := s.managedEvent(ctx, userID, eventID, authz.ActionEventManage); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, eventID); err != nil {
		return err
	}
	s.evict(ctx, eventID)
	return nil
}

func (s *EventServiceImpl) Publish(ctx context.Context, userID int, eventID uuid.UUID) (*model.Event, error) {
	event, err := s.transition(ctx, userID, eventID, model.EventStatusPublished)
	if err != nil {
		return nil, err
	}
	s.warmUp(ctx, event)
	return event, nil
}

func (s *EventServiceImpl) Cancel(ctx context.Context, userID int, eventID uuid.UUID) (*model.Event, error) {
	event, err := s.transition(ctx, userID, eventID, model.EventStatusCancelled)
	if err != nil {
		return nil, err
	}
	s.evict(ctx, eventID)
	return event, nil
}

func (s *EventServiceImpl) Complete(ctx context.Context, userID int, eventID uuid.UUID) (*model.Event, error) {
	event, err := s.transition(ctx, userID, eventID, model.EventStatusCompleted)
	if err != nil {
		return nil, err
	}
	s.evict(ctx, eventID)
	return event, nil
}

// transition 以目前狀態做 CAS，並發的狀態變更只有一個會成功
func (s *EventServiceImpl) transition(ctx context.Context, userID int, eventID uuid.UUID, to model.EventStatus) (*model.Event, error) {
	event, err := s.managedEvent(ctx, userID, eventID, authz.ActionEventManage)
	if err != nil {
		return nil, err
	}
	if !event.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%s -> %s: %w", event.Status, to, apperrors.ErrInvalidStatusTransition)
	}
	return s.repo.UpdateStatus(ctx, eventID, event.Status, to)
}

func (s *EventServiceImpl) Like(ctx context.Context, eventID uuid.UUID) (int, error) {
	return s.repo.IncrementLikes(ctx, eventID)
}

func (s *EventServiceImpl) AddComment(ctx context.Context, userID int, eventID uuid.UUID, text string) (*model.Comment, error) {
	if text == "" {
		return nil, apperrors.ErrInvalidInput
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	event, err := s.repo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.repo.AddComment(ctx, event.ID, userID, text)
}

func (s *EventServiceImpl) ListComments(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]*model.Comment, error) {
	event, err := s.repo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListComments(ctx, event.ID, limit, offset)
}

func (s *EventServiceImpl) Sales(ctx context.Context, userID int, eventID uuid.UUID) (*model.SalesSummary, error) {
	event, err := s.managedEvent(ctx, userID, eventID, authz.ActionEventViewSales)
	if err != nil {
		return nil, err
	}
	return &model.SalesSummary{
		EventID:         event.EventID,
		MaxParticipants: event.MaxParticipants,
		SoldTickets:     event.SoldTickets,
		RemainingSeats:  event.RemainingSeats(),
		TotalRevenue:    event.TotalRevenue,
		TicketPrice:     event.TicketPrice,
	}, nil
}

// managedEvent 載入活動並確認呼叫者可對其執行 action
func (s *EventServiceImpl) managedEvent(ctx context.Context, userID int, eventID uuid.UUID, action authz.Action) (*model.Event, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	event, err := s.repo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(authz.SubjectOf(user), action, event); err != nil {
		return nil, err
	}
	return event, nil
}

// warmUp 失敗不影響主流程，CapacityManager 會退回資料庫閘門
func (s *EventServiceImpl) warmUp(ctx context.Context, event *model.Event) {
	if s.inventory == nil {
		return
	}
	if err := s.inventory.WarmUp(ctx, event.EventID, event.RemainingSeats()); err != nil {
		logger.WithComponent("cache").Warn("warm up admission gate failed",
			zap.String("event_id", event.EventID.String()), zap.Error(err))
	}
}

func (s *EventServiceImpl) evict(ctx context.Context, eventID uuid.UUID) {
	if s.inventory == nil {
		return
	}
	if err := s.inventory.Evict(ctx, eventID); err != nil {
		logger.WithComponent("cache").Warn("evict admission gate failed",
			zap.String("event_id", eventID.String()), zap.Error(err))
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

package service

import (
	"context"

	"go-gin-event-ticketing/internal/authz"
	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/repository"

	"github.com/google/uuid"
)

type TicketService interface {
	// Purchase 出票（預留座位 -> 寫入票券，失敗時補償）
	Purchase(ctx context.Context, userID int, eventID uuid.UUID) (*model.Ticket, error)
	MyTickets(ctx context.Context, userID int) ([]*model.Ticket, error)
	Validate(ctx context.Context, code string) (*model.ValidationResult, error)
	Use(ctx context.Context, code string) (*model.Ticket, error)
	// Cancel 票券持有者或活動建立者可取消
	Cancel(ctx context.Context, userID int, code string) (*model.Ticket, error)
	// EventTickets 僅活動建立者可查看
	EventTickets(ctx context.Context, userID int, eventID uuid.UUID) ([]*model.Ticket, error)
}

type TicketServiceImpl struct {
	users     repository.UserRepository
	events    repository.EventRepository
	tickets   repository.TicketRepository
	issuer    *TicketIssuer
	validator *TicketValidator
	policy    *authz.Policy
}

func NewTicketService(
	users repository.UserRepository,
	events repository.EventRepository,
	tickets repository.TicketRepository,
	issuer *TicketIssuer,
	validator *TicketValidator,
	policy *authz.Policy,
) TicketService {
	return &TicketServiceImpl{
		users:     users,
		events:    events,
		tickets:   tickets,
		issuer:    issuer,
		validator: validator,
		policy:    policy,
	}
}

func (s *TicketServiceImpl) Purchase(ctx context.Context, userID int, eventID uuid.UUID) (*model.Ticket, error) {
	return s.issuer.Issue(ctx, userID, eventID)
}

func (s *TicketServiceImpl) MyTickets(ctx context.Context, userID int) ([]*model.Ticket, error) {
	return s.tickets.ListByUser(ctx, userID)
}

func (s *TicketServiceImpl) Validate(ctx context.Context, code string) (*model.ValidationResult, error) {
	return s.validator.Validate(ctx, code)
}

func (s *TicketServiceImpl) Use(ctx context.Context, code string) (*model.Ticket, error) {
	return s.validator.Use(ctx, code)
}

func (s *TicketServiceImpl) Cancel(ctx context.Context, userID int, code string) (*model.Ticket, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.tickets.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	event, err := s.events.FindByEventID(ctx, ticket.EventUUID)
	if err != nil {
		return nil, err
	}

	resource := authz.TicketOnEvent{Ticket: ticket, Event: event}
	if err := s.policy.Authorize(authz.SubjectOf(user), authz.ActionTicketCancel, resource); err != nil {
		return nil, err
	}
	return s.validator.Cancel(ctx, code)
}

func (s *TicketServiceImpl) EventTickets(ctx context.Context, userID int, eventID uuid.UUID) ([]*model.Ticket, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	event, err := s.events.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(authz.SubjectOf(user), authz.ActionEventViewTickets, event); err != nil {
		return nil, err
	}
	return s.tickets.ListByEvent(ctx, event.ID)
}

package service

import (
	"context"
	"errors"
	"fmt"

	"go-gin-event-ticketing/internal/clock"
	"go-gin-event-ticketing/internal/events"
	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/repository"
	"go-gin-event-ticketing/internal/telemetry"
	apperrors "go-gin-event-ticketing/pkg/app_errors"
	"go-gin-event-ticketing/pkg/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// TicketIssuer 兩階段出票：先預留座位，再寫入票券；寫入失敗時釋放預留
type TicketIssuer struct {
	users       repository.UserRepository
	tickets     repository.TicketRepository
	capacity    CapacityManager
	codes       TicketCodeGenerator
	compensator *Compensator
	publisher   events.Publisher
	clock       clock.Clock
}

func NewTicketIssuer(
	users repository.UserRepository,
	tickets repository.TicketRepository,
	capacity CapacityManager,
	codes TicketCodeGenerator,
	compensator *Compensator,
	publisher events.Publisher,
	clk clock.Clock,
) *TicketIssuer {
	return &TicketIssuer{
		users:       users,
		tickets:     tickets,
		capacity:    capacity,
		codes:       codes,
		compensator: compensator,
		publisher:   publisher,
		clock:       clk,
	}
}

func (s *TicketIssuer) Issue(ctx context.Context, userID int, eventID uuid.UUID) (ticket *model.Ticket, err error) {
	ctx, span := telemetry.StartSpan(ctx, "ticket.issue",
		attribute.Int("user.id", userID),
		attribute.String("event.id", eventID.String()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	// 買家不存在時不應該動到任何計數
	buyer, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	res, err := s.capacity.Reserve(ctx, eventID)
	if err != nil {
		return nil, err
	}

	ticket, err = s.persist(ctx, buyer, res)
	if err != nil {
		s.compensator.Compensate(ctx, res, err.Error())
		return nil, err
	}

	s.publish(ctx, model.TicketEventIssued, ticket)
	return ticket, nil
}

// persist 寫入票券並提交預留。ticket code 撞號時換一組重試一次
func (s *TicketIssuer) persist(ctx context.Context, buyer *model.User, res *model.Reservation) (*model.Ticket, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, err
		}
		ticket, err := s.tickets.CreateForReservation(ctx, s.snapshot(buyer, res, code))
		if err == nil {
			return ticket, nil
		}
		if !errors.Is(err, apperrors.ErrDuplicateTicketCode) {
			return nil, err
		}
		lastErr = err
		logger.WithComponent("service").Warn("ticket code collision, regenerating",
			zap.String("reservation_id", res.ID.String()), zap.Int("attempt", attempt+1))
	}
	return nil, fmt.Errorf("%w: %v", apperrors.ErrInternalServerError, lastErr)
}

// snapshot 購買當下的買家與活動資料，之後活動修改不影響票券
func (s *TicketIssuer) snapshot(buyer *model.User, res *model.Reservation, code string) *model.Ticket {
	event := res.Event
	return &model.Ticket{
		UserID:        buyer.ID,
		EventID:       res.EventID,
		EventUUID:     res.EventUUID,
		ReservationID: res.ID,
		Status:        model.TicketStatusActive,
		Details: model.TicketDetails{
			Name:         buyer.Name,
			Email:        buyer.Email,
			EventName:    event.Title,
			EventDate:    event.EventDate,
			EventTime:    event.EventTime,
			TicketPrice:  res.Price,
			TicketCode:   code,
			PurchaseDate: s.clock.Now(),
		},
	}
}

func (s *TicketIssuer) publish(ctx context.Context, eventType model.TicketEventType, ticket *model.Ticket) {
	publishTicketEvent(ctx, s.publisher, model.NewTicketEvent(eventType, ticket, s.clock.Now()))
}

func publishTicketEvent(ctx context.Context, publisher events.Publisher, evt model.TicketEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, evt); err != nil {
		logger.WithComponent("events").Warn("publish ticket event failed",
			zap.String("type", string(evt.Type)),
			zap.String("ticket_code", evt.TicketCode),
			zap.Error(err),
		)
	}
}

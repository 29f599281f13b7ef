package service

import (
	"context"

	"go-gin-event-ticketing/internal/clock"
	"go-gin-event-ticketing/internal/events"
	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/repository"
	"go-gin-event-ticketing/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
)

// TicketValidator 票券狀態機：active -> used、active -> cancelled，兩者皆為終態
type TicketValidator struct {
	tickets   repository.TicketRepository
	publisher events.Publisher
	clock     clock.Clock
}

func NewTicketValidator(tickets repository.TicketRepository, publisher events.Publisher, clk clock.Clock) *TicketValidator {
	return &TicketValidator{tickets: tickets, publisher: publisher, clock: clk}
}

// Validate 唯讀，不會改變票券狀態
func (v *TicketValidator) Validate(ctx context.Context, code string) (*model.ValidationResult, error) {
	ticket, err := v.tickets.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return &model.ValidationResult{Valid: ticket.IsValid(), Ticket: ticket}, nil
}

// Use 以 CAS 從 active 轉為 used，同時到達的兩個請求只有一個會成功
func (v *TicketValidator) Use(ctx context.Context, code string) (ticket *model.Ticket, err error) {
	ctx, span := telemetry.StartSpan(ctx, "ticket.use", attribute.String("ticket.code", code))
	defer func() { telemetry.EndSpan(span, err) }()

	ticket, err = retryOnContention(func() (*model.Ticket, error) {
		return v.tickets.MarkUsed(ctx, code, v.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	publishTicketEvent(ctx, v.publisher, model.NewTicketEvent(model.TicketEventUsed, ticket, v.clock.Now()))
	return ticket, nil
}

// Cancel active -> cancelled。容量不歸還
func (v *TicketValidator) Cancel(ctx context.Context, code string) (*model.Ticket, error) {
	ticket, err := retryOnContention(func() (*model.Ticket, error) {
		return v.tickets.MarkCancelled(ctx, code, v.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	publishTicketEvent(ctx, v.publisher, model.NewTicketEvent(model.TicketEventCancelled, ticket, v.clock.Now()))
	return ticket, nil
}

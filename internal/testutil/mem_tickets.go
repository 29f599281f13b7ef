package testutil

import (
	"context"
	"sort"
	"time"

	"go-gin-event-ticketing/internal/model"
	apperrors "go-gin-event-ticketing/pkg/app_errors"
)

type MemTickets struct{ s *MemStore }

func (m *MemTickets) CreateForReservation(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.TicketCreateErr != nil {
		if err := s.TicketCreateErr(ticket); err != nil {
			return nil, err
		}
	}
	res, ok := s.reservations[ticket.ReservationID]
	if !ok || res.Status != model.ReservationStatusReserved {
		return nil, apperrors.ErrReservationNotReserved
	}
	if _, dup := s.tickets[ticket.Details.TicketCode]; dup {
		return nil, apperrors.ErrDuplicateTicketCode
	}

	res.Status = model.ReservationStatusCommitted
	c := copyTicket(ticket)
	c.ID = s.id()
	c.Status = model.TicketStatusActive
	c.Details.IsUsed = false
	c.Details.UsedAt = nil
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	s.tickets[c.Details.TicketCode] = c
	return copyTicket(c), nil
}

func (m *MemTickets) FindByCode(ctx context.Context, code string) (*model.Ticket, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[code]
	if !ok {
		return nil, apperrors.ErrTicketNotFound
	}
	return copyTicket(t), nil
}

func (m *MemTickets) ListByUser(ctx context.Context, userID int) ([]*model.Ticket, error) {
	return m.filter(func(t *model.Ticket) bool { return t.UserID == userID }), nil
}

func (m *MemTickets) ListByEvent(ctx context.Context, eventID int) ([]*model.Ticket, error) {
	return m.filter(func(t *model.Ticket) bool { return t.EventID == eventID }), nil
}

func (m *MemTickets) ListByUserAndEvent(ctx context.Context, userID int, eventID int) ([]*model.Ticket, error) {
	return m.filter(func(t *model.Ticket) bool { return t.UserID == userID && t.EventID == eventID }), nil
}

func (m *MemTickets) filter(keep func(t *model.Ticket) bool) []*model.Ticket {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Ticket, 0)
	for _, t := range s.tickets {
		if keep(t) {
			out = append(out, copyTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *MemTickets) MarkUsed(ctx context.Context, code string, at time.Time) (*model.Ticket, error) {
	return m.transition(code, model.TicketStatusUsed, func(t *model.Ticket) {
		t.Status = model.TicketStatusUsed
		t.Details.IsUsed = true
		usedAt := at
		t.Details.UsedAt = &usedAt
		t.UpdatedAt = at
	})
}

func (m *MemTickets) MarkCancelled(ctx context.Context, code string, at time.Time) (*model.Ticket, error) {
	return m.transition(code, model.TicketStatusCancelled, func(t *model.Ticket) {
		t.Status = model.TicketStatusCancelled
		t.UpdatedAt = at
	})
}

// transition 與 SQL 的 WHERE status = 'active' 條件相同
func (m *MemTickets) transition(code string, to model.TicketStatus, apply func(t *model.Ticket)) (*model.Ticket, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[code]
	if !ok {
		return nil, apperrors.ErrTicketNotFound
	}
	if !t.Status.CanTransitionTo(to) {
		return nil, apperrors.ErrTicketNotActive
	}
	apply(t)
	return copyTicket(t), nil
}

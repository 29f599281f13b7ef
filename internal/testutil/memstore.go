package testutil

import (
	"sync"

	"go-gin-event-ticketing/internal/model"

	"github.com/google/uuid"
)

// MemStore is an in-memory event, ticket and user store. Every mutation runs under one
// mutex so conditional updates behave like the single-statement SQL versions.
type MemStore struct {
	mu           sync.Mutex
	nextID       int
	users        map[int]*model.User
	events       map[uuid.UUID]*model.Event
	reservations map[uuid.UUID]*model.Reservation
	tickets      map[string]*model.Ticket
	comments     map[int][]*model.Comment

	// 故障注入：回傳非 nil 時對應操作失敗且不產生任何副作用
	TicketCreateErr func(ticket *model.Ticket) error
	ReleaseErr      func(reservationID uuid.UUID) error
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:        make(map[int]*model.User),
		events:       make(map[uuid.UUID]*model.Event),
		reservations: make(map[uuid.UUID]*model.Reservation),
		tickets:      make(map[string]*model.Ticket),
		comments:     make(map[int][]*model.Comment),
	}
}

func (s *MemStore) Users() *MemUsers     { return &MemUsers{s} }
func (s *MemStore) Events() *MemEvents   { return &MemEvents{s} }
func (s *MemStore) Tickets() *MemTickets { return &MemTickets{s} }

// Reservation 回傳 reservation 目前狀態，測試用
func (s *MemStore) Reservation(id uuid.UUID) (model.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, false
	}
	return *r, true
}

// TicketCount 目前所有票券數量
func (s *MemStore) TicketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

func (s *MemStore) id() int {
	s.nextID++
	return s.nextID
}

func (s *MemStore) eventByID(id int) *model.Event {
	for _, e := range s.events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func copyEvent(e *model.Event) *model.Event {
	c := *e
	return &c
}

func copyTicket(t *model.Ticket) *model.Ticket {
	c := *t
	if t.Details.UsedAt != nil {
		at := *t.Details.UsedAt
		c.Details.UsedAt = &at
	}
	return &c
}

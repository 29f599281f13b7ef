package testutil

import (
	"context"
	"sort"
	"time"

	"go-gin-event-ticketing/internal/model"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/google/uuid"
)

type MemEvents struct{ s *MemStore }

func (m *MemEvents) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c := copyEvent(event)
	c.ID = s.id()
	if c.EventID == uuid.Nil {
		c.EventID = uuid.New()
	}
	if c.Status == "" {
		c.Status = model.EventStatusDraft
	}
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	s.events[c.EventID] = c
	return copyEvent(c), nil
}

func (m *MemEvents) List(ctx context.Context, limit, offset int) ([]*model.Event, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*model.Event, 0, len(s.events))
	for _, e := range s.events {
		all = append(all, copyEvent(e))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].EventDate.Equal(all[j].EventDate) {
			return all[i].ID < all[j].ID
		}
		return all[i].EventDate.Before(all[j].EventDate)
	})
	return page(all, limit, offset), nil
}

func (m *MemEvents) FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	return copyEvent(e), nil
}

func (m *MemEvents) Update(ctx context.Context, eventID uuid.UUID, p model.UpdateEventParams) (*model.Event, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	if p.IsEmpty() {
		return nil, apperrors.ErrInvalidInput
	}
	if p.TicketPrice != nil && e.Status != model.EventStatusDraft {
		return nil, apperrors.ErrPriceLocked
	}
	if p.MaxParticipants != nil && *p.MaxParticipants < e.SoldTickets {
		return nil, apperrors.ErrCapacityBelowSold
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.OrganizedBy != nil {
		e.OrganizedBy = *p.OrganizedBy
	}
	if p.EventDate != nil {
		e.EventDate = *p.EventDate
	}
	if p.EventTime != nil {
		e.EventTime = *p.EventTime
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Image != nil {
		img := *p.Image
		e.Image = &img
	}
	if p.TicketPrice != nil {
		e.TicketPrice = *p.TicketPrice
	}
	if p.MaxParticipants != nil {
		e.MaxParticipants = *p.MaxParticipants
	}
	e.UpdatedAt = time.Now().UTC()
	return copyEvent(e), nil
}

func (m *MemEvents) UpdateStatus(ctx context.Context, eventID uuid.UUID, from, to model.EventStatus) (*model.Event, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	if e.Status != from {
		return nil, apperrors.ErrInvalidStatusTransition
	}
	e.Status = to
	return copyEvent(e), nil
}

func (m *MemEvents) Delete(ctx context.Context, eventID uuid.UUID) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return apperrors.ErrEventNotFound
	}
	if e.SoldTickets > 0 {
		return apperrors.ErrEventHasTickets
	}
	delete(s.events, eventID)
	delete(s.comments, e.ID)
	return nil
}

func (m *MemEvents) SetWebinar(ctx context.Context, eventID uuid.UUID, ids model.WebinarIDs) (*model.Event, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	video, stream, chat := ids.VideoID, ids.StreamID, ids.ChatID
	e.YoutubeVideoID, e.YoutubeStreamID, e.YoutubeChatID = &video, &stream, &chat
	return copyEvent(e), nil
}

func (m *MemEvents) IncrementLikes(ctx context.Context, eventID uuid.UUID) (int, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return 0, apperrors.ErrEventNotFound
	}
	e.Likes++
	return e.Likes, nil
}

func (m *MemEvents) AddComment(ctx context.Context, eventID int, userID int, text string) (*model.Comment, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &model.Comment{ID: s.id(), EventID: eventID, UserID: userID, Text: text, CreatedAt: time.Now().UTC()}
	s.comments[eventID] = append(s.comments[eventID], c)
	out := *c
	return &out, nil
}

func (m *MemEvents) ListComments(ctx context.Context, eventID int, limit, offset int) ([]*model.Comment, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.comments[eventID]
	// newest first
	all := make([]*model.Comment, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		c := *src[i]
		all = append(all, &c)
	}
	return page(all, limit, offset), nil
}

func (m *MemEvents) ReserveSeat(ctx context.Context, eventID uuid.UUID, reservationID uuid.UUID, now time.Time) (*model.Reservation, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	if e.Status != model.EventStatusPublished || !e.EventDate.After(now) {
		return nil, apperrors.ErrEventNotAvailable
	}
	if e.SoldTickets >= e.MaxParticipants {
		return nil, apperrors.ErrEventSoldOut
	}
	e.SoldTickets++
	e.CurrentParticipants++
	e.TotalRevenue += e.TicketPrice

	res := &model.Reservation{
		ID:         reservationID,
		EventID:    e.ID,
		EventUUID:  e.EventID,
		Price:      e.TicketPrice,
		Status:     model.ReservationStatusReserved,
		ReservedAt: now,
	}
	s.reservations[reservationID] = res
	out := *res
	out.Event = copyEvent(e)
	return &out, nil
}

func (m *MemEvents) ReleaseSeat(ctx context.Context, reservationID uuid.UUID) (bool, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReleaseErr != nil {
		if err := s.ReleaseErr(reservationID); err != nil {
			return false, err
		}
	}
	res, ok := s.reservations[reservationID]
	if !ok || res.Status != model.ReservationStatusReserved {
		return false, nil
	}
	res.Status = model.ReservationStatusReleased
	if e := s.eventByID(res.EventID); e != nil {
		e.SoldTickets--
		e.CurrentParticipants--
		e.TotalRevenue -= res.Price
	}
	return true, nil
}

func (m *MemEvents) ListStaleReservations(ctx context.Context, before time.Time, limit int) ([]*model.Reservation, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Reservation, 0)
	for _, r := range s.reservations {
		if r.Status == model.ReservationStatusReserved && r.ReservedAt.Before(before) {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReservedAt.Before(out[j].ReservedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

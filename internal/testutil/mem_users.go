package testutil

import (
	"context"
	"time"

	"go-gin-event-ticketing/internal/model"
	apperrors "go-gin-event-ticketing/pkg/app_errors"
)

type MemUsers struct{ s *MemStore }

func (u *MemUsers) Create(ctx context.Context, user *model.User) (*model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *user
	c.ID = s.id()
	if c.Role == "" {
		c.Role = model.RoleAttendee
	}
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	s.users[c.ID] = &c
	out := c
	return &out, nil
}

func (u *MemUsers) FindByID(ctx context.Context, id int) (*model.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	c := *user
	return &c, nil
}

func (u *MemUsers) SetProviderToken(ctx context.Context, id int, token string, expiry *time.Time) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	user.YoutubeAccessToken = &token
	user.YoutubeTokenExpiry = expiry
	return nil
}

func (u *MemUsers) CountCreatedEvents(ctx context.Context, id int) (int, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.CreatorID == id {
			n++
		}
	}
	return n, nil
}

func (u *MemUsers) CountPurchasedTickets(ctx context.Context, id int) (int, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tickets {
		if t.UserID == id {
			n++
		}
	}
	return n, nil
}

package testutil

import (
	"context"
	"testing"
	"time"

	"go-gin-event-ticketing/internal/model"

	"github.com/google/uuid"
)

// UserCreator 與 EventCreator 讓 fixture 同時適用 MemStore 與 Postgres repository
type UserCreator interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
}

type EventCreator interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
}

func CreateUser(t *testing.T, users UserCreator, name string, role model.Role) *model.User {
	t.Helper()
	u, err := users.Create(context.Background(), &model.User{
		Name:  name,
		Email: name + "-" + uuid.NewString()[:8] + "@example.com",
		Role:  role,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreatePublishedEvent 建立一週後舉辦、已發佈的活動
func CreatePublishedEvent(t *testing.T, events EventCreator, creatorID int, capacity int, price int64) *model.Event {
	t.Helper()
	return CreateEvent(t, events, &model.Event{
		CreatorID:       creatorID,
		Title:           "Go Conf",
		Description:     "talks",
		OrganizedBy:     "gophers",
		EventDate:       time.Now().UTC().Add(7 * 24 * time.Hour),
		EventTime:       "18:00",
		Location:        "Taipei",
		TicketPrice:     price,
		MaxParticipants: capacity,
		Status:          model.EventStatusPublished,
	})
}

func CreateEvent(t *testing.T, events EventCreator, event *model.Event) *model.Event {
	t.Helper()
	e, err := events.Create(context.Background(), event)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return e
}

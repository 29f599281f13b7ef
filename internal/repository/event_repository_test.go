package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/repository"
	"go-gin-event-ticketing/internal/testutil"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRepository_ReserveSeat(t *testing.T) {
	pool := testutil.SetupDatabase(t)
	users := repository.NewUserRepository(pool)
	repo := repository.NewEventRepository(pool)
	ctx := context.Background()

	creator := testutil.CreateUser(t, users, "creator", model.RoleCreator)

	t.Run("Success", func(t *testing.T) {
		event := testutil.CreatePublishedEvent(t, repo, creator.ID, 2, 1000)

		res, err := repo.ReserveSeat(ctx, event.EventID, uuid.New(), time.Now().UTC())

		require.NoError(t, err)
		assert.Equal(t, model.ReservationStatusReserved, res.Status)
		assert.Equal(t, int64(1000), res.Price)
		assert.Equal(t, 1, res.Event.SoldTickets)
		assert.Equal(t, 1, res.Event.CurrentParticipants)
		assert.Equal(t, int64(1000), res.Event.TotalRevenue)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.ReserveSeat(ctx, uuid.New(), uuid.New(), time.Now().UTC())
		assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
	})

	t.Run("Draft", func(t *testing.T) {
		event := testutil.CreateEvent(t, repo, &model.Event{
			CreatorID: creator.ID, Title: "draft", EventDate: time.Now().Add(time.Hour),
			TicketPrice: 1, MaxParticipants: 1,
		})
		_, err := repo.ReserveSeat(ctx, event.EventID, uuid.New(), time.Now().UTC())
		assert.ErrorIs(t, err, apperrors.ErrEventNotAvailable)
	})

	t.Run("PastDated", func(t *testing.T) {
		event := testutil.CreateEvent(t, repo, &model.Event{
			CreatorID: creator.ID, Title: "past", EventDate: time.Now().Add(-time.Hour),
			TicketPrice: 1, MaxParticipants: 1, Status: model.EventStatusPublished,
		})
		_, err := repo.ReserveSeat(ctx, event.EventID, uuid.New(), time.Now().UTC())
		assert.ErrorIs(t, err, apperrors.ErrEventNotAvailable)
	})

	t.Run("SoldOut", func(t *testing.T) {
		event := testutil.CreatePublishedEvent(t, repo, creator.ID, 1, 10)
		_, err := repo.ReserveSeat(ctx, event.EventID, uuid.New(), time.Now().UTC())
		require.NoError(t, err)

		_, err = repo.ReserveSeat(ctx, event.EventID, uuid.New(), time.Now().UTC())
		assert.ErrorIs(t, err, apperrors.ErrEventSoldOut)
	})

	t.Run("PastDatedAndFull", func(t *testing.T) {
		event := testutil.CreatePublishedEvent(t, repo, creator.ID, 1, 10)
		_, err := repo.ReserveSeat(ctx, event.EventID, uuid.New(), time.Now().UTC())
		require.NoError(t, err)

		_, err = repo.ReserveSeat(ctx, event.EventID, uuid.New(), event.EventDate.Add(time.Hour))
		assert.ErrorIs(t, err, apperrors.ErrEventNotAvailable)
	})
}

func TestEventRepository_ReserveSeatConcurrent(t *testing.T) {
	pool := testutil.SetupDatabase(t)
	users := repository.NewUserRepository(pool)
	repo := repository.NewEventRepository(pool)
	ctx := context.Background()

	creator := testutil.CreateUser(t, users, "creator", model.RoleCreator)
	const capacity = 5
	const price = int64(250)
	event := testutil.CreatePublishedEvent(t, repo, creator.ID, capacity, price)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0
	soldOutCount := 0

	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ReserveSeat(ctx, event.EventID, uuid.New(), time.Now().UTC())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successCount++
			} else if assert.ErrorIs(t, err, apperrors.ErrEventSoldOut) {
				soldOutCount++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, successCount)
	assert.Equal(t, 40-capacity, soldOutCount)

	final, err := repo.FindByEventID(ctx, event.EventID)
	require.NoError(t, err)
	assert.Equal(t, capacity, final.SoldTickets)
	assert.Equal(t, int64(capacity)*price, final.TotalRevenue)
}

func TestEventRepository_ReleaseSeatIsIdempotent(t *testing.T) {
	pool := testutil.SetupDatabase(t)
	users := repository.NewUserRepository(pool)
	repo := repository.NewEventRepository(pool)
	ctx := context.Background()

	creator := testutil.CreateUser(t, users, "creator", model.RoleCreator)
	event := testutil.CreatePublishedEvent(t, repo, creator.ID, 3, 500)

	res, err := repo.ReserveSeat(ctx, event.EventID, uuid.New(), time.Now().UTC())
	require.NoError(t, err)

	released, err := repo.ReleaseSeat(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, released)

	released, err = repo.ReleaseSeat(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, released)

	final, err := repo.FindByEventID(ctx, event.EventID)
	require.NoError(t, err)
	assert.Equal(t, 0, final.SoldTickets)
	assert.Equal(t, 0, final.CurrentParticipants)
	assert.Equal(t, int64(0), final.TotalRevenue)
}

func TestEventRepository_ListStaleReservations(t *testing.T) {
	pool := testutil.SetupDatabase(t)
	users := repository.NewUserRepository(pool)
	repo := repository.NewEventRepository(pool)
	ctx := context.Background()

	creator := testutil.CreateUser(t, users, "creator", model.RoleCreator)
	event := testutil.CreatePublishedEvent(t, repo, creator.ID, 3, 500)

	old := time.Now().UTC().Add(-10 * time.Minute)
	stale, err := repo.ReserveSeat(ctx, event.EventID, uuid.New(), old)
	require.NoError(t, err)
	_, err = repo.ReserveSeat(ctx, event.EventID, uuid.New(), time.Now().UTC())
	require.NoError(t, err)

	list, err := repo.ListStaleReservations(ctx, time.Now().UTC().Add(-time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, stale.ID, list[0].ID)
	assert.Equal(t, event.EventID, list[0].EventUUID)
}

func TestEventRepository_Update(t *testing.T) {
	pool := testutil.SetupDatabase(t)
	users := repository.NewUserRepository(pool)
	repo := repository.NewEventRepository(pool)
	ctx := context.Background()

	creator := testutil.CreateUser(t, users, "creator", model.RoleCreator)

	t.Run("PriceLockedAfterPublish", func(t *testing.T) {
		event := testutil.CreatePublishedEvent(t, repo, creator.ID, 3, 500)
		price := int64(900)
		_, err := repo.Update(ctx, event.EventID, model.UpdateEventParams{TicketPrice: &price})
		assert.ErrorIs(t, err, apperrors.ErrPriceLocked)
	})

	t.Run("CapacityBelowSold", func(t *testing.T) {
		event := testutil.CreatePublishedEvent(t, repo, creator.ID, 3, 500)
		for i := 0; i < 2; i++ {
			_, err := repo.ReserveSeat(ctx, event.EventID, uuid.New(), time.Now().UTC())
			require.NoError(t, err)
		}
		capacity := 1
		_, err := repo.Update(ctx, event.EventID, model.UpdateEventParams{MaxParticipants: &capacity})
		assert.ErrorIs(t, err, apperrors.ErrCapacityBelowSold)
	})

	t.Run("Success", func(t *testing.T) {
		event := testutil.CreatePublishedEvent(t, repo, creator.ID, 3, 500)
		title := "renamed"
		capacity := 10
		updated, err := repo.Update(ctx, event.EventID, model.UpdateEventParams{Title: &title, MaxParticipants: &capacity})
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Title)
		assert.Equal(t, 10, updated.MaxParticipants)
	})
}

func TestEventRepository_UpdateStatusAndDelete(t *testing.T) {
	pool := testutil.SetupDatabase(t)
	users := repository.NewUserRepository(pool)
	repo := repository.NewEventRepository(pool)
	ctx := context.Background()

	creator := testutil.CreateUser(t, users, "creator", model.RoleCreator)
	event := testutil.CreateEvent(t, repo, &model.Event{
		CreatorID: creator.ID, Title: "draft", EventDate: time.Now().Add(time.Hour),
		TicketPrice: 1, MaxParticipants: 1,
	})

	published, err := repo.UpdateStatus(ctx, event.EventID, model.EventStatusDraft, model.EventStatusPublished)
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusPublished, published.Status)

	_, err = repo.UpdateStatus(ctx, event.EventID, model.EventStatusDraft, model.EventStatusPublished)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)

	_, err = repo.ReserveSeat(ctx, event.EventID, uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Delete(ctx, event.EventID), apperrors.ErrEventHasTickets)
	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), apperrors.ErrEventNotFound)
}

func TestEventRepository_Comments(t *testing.T) {
	pool := testutil.SetupDatabase(t)
	users := repository.NewUserRepository(pool)
	repo := repository.NewEventRepository(pool)
	ctx := context.Background()

	creator := testutil.CreateUser(t, users, "creator", model.RoleCreator)
	event := testutil.CreatePublishedEvent(t, repo, creator.ID, 3, 500)

	for _, text := range []string{"first", "second", "third"} {
		_, err := repo.AddComment(ctx, event.ID, creator.ID, text)
		require.NoError(t, err)
	}

	page, err := repo.ListComments(ctx, event.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "third", page[0].Text)

	likes, err := repo.IncrementLikes(ctx, event.EventID)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)
}

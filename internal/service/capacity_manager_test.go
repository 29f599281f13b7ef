package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-gin-event-ticketing/internal/model"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacityManager_ReserveAndRelease(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	creator := h.user(t, "creator", model.RoleCreator)
	event := h.publishedEvent(t, creator.ID, 2, 400)

	res, err := h.capacity.Reserve(ctx, event.EventID)
	require.NoError(t, err)
	assert.True(t, res.Admitted)
	assert.Equal(t, int64(400), res.Price)
	assert.Equal(t, model.ReservationStatusReserved, res.Status)
	assert.Equal(t, 1, res.Event.SoldTickets)

	got := h.event(t, event)
	assert.Equal(t, 1, got.SoldTickets)
	assert.Equal(t, int64(400), got.TotalRevenue)

	require.NoError(t, h.capacity.Release(ctx, res))
	// 重複釋放不會重複扣回
	require.NoError(t, h.capacity.Release(ctx, res))

	got = h.event(t, event)
	assert.Equal(t, 0, got.SoldTickets)
	assert.Equal(t, 0, got.CurrentParticipants)
	assert.Equal(t, int64(0), got.TotalRevenue)

	remaining, err := h.inventory.Remaining(ctx, event.EventID)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}

func TestCapacityManager_AdmissionGate(t *testing.T) {
	ctx := context.Background()

	t.Run("SoldOutConfirmedByDatabase", func(t *testing.T) {
		h := newHarness(t)
		creator := h.user(t, "creator", model.RoleCreator)
		event := h.publishedEvent(t, creator.ID, 1, 100)

		_, err := h.capacity.Reserve(ctx, event.EventID)
		require.NoError(t, err)

		_, err = h.capacity.Reserve(ctx, event.EventID)
		assert.ErrorIs(t, err, apperrors.ErrEventSoldOut)
		assert.Equal(t, 1, h.event(t, event).SoldTickets)

		remaining, err := h.inventory.Remaining(ctx, event.EventID)
		require.NoError(t, err)
		assert.Equal(t, 0, remaining)
	})

	t.Run("UnderCountedGateResyncs", func(t *testing.T) {
		h := newHarness(t)
		creator := h.user(t, "creator", model.RoleCreator)
		event := h.publishedEvent(t, creator.ID, 5, 100)
		// 閘門顯示售罄，但資料庫仍有 5 個座位
		require.NoError(t, h.inventory.WarmUp(ctx, event.EventID, 0))

		res, err := h.capacity.Reserve(ctx, event.EventID)
		require.NoError(t, err)
		assert.True(t, res.Admitted)
		assert.Equal(t, 1, h.event(t, event).SoldTickets)

		remaining, err := h.inventory.Remaining(ctx, event.EventID)
		require.NoError(t, err)
		assert.Equal(t, 4, remaining)
	})

	t.Run("NotWarmedFallsBackToDatabase", func(t *testing.T) {
		h := newHarness(t)
		creator := h.user(t, "creator", model.RoleCreator)
		event := h.publishedEvent(t, creator.ID, 5, 100)
		require.NoError(t, h.inventory.Evict(ctx, event.EventID))

		res, err := h.capacity.Reserve(ctx, event.EventID)
		require.NoError(t, err)
		assert.False(t, res.Admitted)
		assert.Equal(t, 1, h.event(t, event).SoldTickets)

		// 資料庫出票後重新預熱
		remaining, err := h.inventory.Remaining(ctx, event.EventID)
		require.NoError(t, err)
		assert.Equal(t, 4, remaining)
	})

	t.Run("RedisDownFallsBackToDatabase", func(t *testing.T) {
		h := newHarness(t)
		creator := h.user(t, "creator", model.RoleCreator)
		event := h.publishedEvent(t, creator.ID, 1, 100)
		h.inventory.Down = true

		res, err := h.capacity.Reserve(ctx, event.EventID)
		require.NoError(t, err)
		assert.False(t, res.Admitted)

		_, err = h.capacity.Reserve(ctx, event.EventID)
		assert.ErrorIs(t, err, apperrors.ErrEventSoldOut)
		assert.Equal(t, 1, h.event(t, event).SoldTickets)
	})

	t.Run("DatabaseSoldOutZeroesGate", func(t *testing.T) {
		h := newHarness(t)
		creator := h.user(t, "creator", model.RoleCreator)
		event := h.publishedEvent(t, creator.ID, 1, 100)
		// Redis 多算座位，資料庫仍會擋下
		require.NoError(t, h.inventory.WarmUp(ctx, event.EventID, 3))

		_, err := h.capacity.Reserve(ctx, event.EventID)
		require.NoError(t, err)
		_, err = h.capacity.Reserve(ctx, event.EventID)
		assert.ErrorIs(t, err, apperrors.ErrEventSoldOut)

		remaining, err := h.inventory.Remaining(ctx, event.EventID)
		require.NoError(t, err)
		assert.Equal(t, 0, remaining)
		assert.Equal(t, 1, h.event(t, event).SoldTickets)
	})
}

func TestCapacityManager_RestoreFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("EvictsGate", func(t *testing.T) {
		h := newHarness(t)
		creator := h.user(t, "creator", model.RoleCreator)
		event := h.publishedEvent(t, creator.ID, 1, 100)

		res, err := h.capacity.Reserve(ctx, event.EventID)
		require.NoError(t, err)

		h.inventory.RestoreErr = errors.New("connection reset")
		require.NoError(t, h.capacity.Release(ctx, res))
		h.inventory.RestoreErr = nil

		_, err = h.inventory.Remaining(ctx, event.EventID)
		assert.ErrorIs(t, err, apperrors.ErrInventoryNotWarmed)

		_, err = h.capacity.Reserve(ctx, event.EventID)
		require.NoError(t, err)
		assert.Equal(t, 1, h.event(t, event).SoldTickets)
	})
}

func TestCapacityManager_PastDatedAndFullIsNotAvailable(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withoutInventory())
	creator := h.user(t, "creator", model.RoleCreator)
	event := h.publishedEvent(t, creator.ID, 1, 100)

	_, err := h.capacity.Reserve(ctx, event.EventID)
	require.NoError(t, err)

	h.clock.Advance(event.EventDate.Sub(h.clock.Now()) + time.Hour)
	_, err = h.capacity.Reserve(ctx, event.EventID)
	assert.ErrorIs(t, err, apperrors.ErrEventNotAvailable)
}

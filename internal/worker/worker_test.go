package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go-gin-event-ticketing/internal/clock"
	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/queue"
	"go-gin-event-ticketing/internal/service"
	"go-gin-event-ticketing/internal/testutil"
	"go-gin-event-ticketing/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     *testutil.MemStore
	inventory *testutil.MemInventory
	clock     *clock.Manual
	capacity  service.CapacityManager
	event     *model.Event
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	store := testutil.NewMemStore()
	inventory := testutil.NewMemInventory()
	clk := clock.NewManual(time.Now())

	creator := testutil.CreateUser(t, store.Users(), "creator", model.RoleCreator)
	event := testutil.CreatePublishedEvent(t, store.Events(), creator.ID, capacity, 100)
	require.NoError(t, inventory.WarmUp(context.Background(), event.EventID, capacity))

	return &fixture{
		store:     store,
		inventory: inventory,
		clock:     clk,
		capacity:  service.NewCapacityManager(store.Events(), inventory, clk),
		event:     event,
	}
}

// sold 在 Eventually 的 goroutine 中呼叫，不能使用 require
func (f *fixture) sold(t *testing.T) int {
	e, err := f.store.Events().FindByEventID(context.Background(), f.event.EventID)
	if err != nil {
		t.Errorf("find event: %v", err)
		return -1
	}
	return e.SoldTickets
}

func TestReleaseWorker_ReleasesQueuedTask(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	f := newFixture(t, 3)
	res, err := f.capacity.Reserve(ctx, f.event.EventID)
	require.NoError(t, err)
	require.Equal(t, 1, f.sold(t))

	q := queue.NewMemoryReleaseQueue(10, 5)
	require.NoError(t, worker.NewReleaseWorker(f.capacity, q).Start(ctx))

	require.NoError(t, q.PublishRelease(ctx, &model.ReleaseTask{
		ReservationID: res.ID,
		EventUUID:     res.EventUUID,
		Admitted:      res.Admitted,
		Reason:        "test",
		CreatedAt:     f.clock.Now(),
	}))

	assert.Eventually(t, func() bool { return f.sold(t) == 0 }, time.Second, 10*time.Millisecond)
	// 資料庫歸還後才補回 Redis
	assert.Eventually(t, func() bool {
		remaining, err := f.inventory.Remaining(ctx, f.event.EventID)
		return err == nil && remaining == 3
	}, time.Second, 10*time.Millisecond)
}

func TestReleaseWorker_RetriesAfterFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	f := newFixture(t, 3)
	res, err := f.capacity.Reserve(ctx, f.event.EventID)
	require.NoError(t, err)

	var attempts atomic.Int32
	f.store.ReleaseErr = func(uuid.UUID) error {
		if attempts.Add(1) < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	q := queue.NewMemoryReleaseQueue(10, 5)
	require.NoError(t, worker.NewReleaseWorker(f.capacity, q).Start(ctx))
	require.NoError(t, q.PublishRelease(ctx, &model.ReleaseTask{ReservationID: res.ID, EventUUID: res.EventUUID}))

	assert.Eventually(t, func() bool { return f.sold(t) == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestReservationSweeper_SweepOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	sweeper := worker.NewReservationSweeper(f.store.Events(), f.capacity, f.clock, time.Minute, time.Second)

	stale, err := f.capacity.Reserve(ctx, f.event.EventID)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	fresh, err := f.capacity.Reserve(ctx, f.event.EventID)
	require.NoError(t, err)
	require.Equal(t, 2, f.sold(t))

	n, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, f.sold(t))

	got, ok := f.store.Reservation(stale.ID)
	require.True(t, ok)
	assert.Equal(t, model.ReservationStatusReleased, got.Status)
	got, ok = f.store.Reservation(fresh.ID)
	require.True(t, ok)
	assert.Equal(t, model.ReservationStatusReserved, got.Status)

	// 再掃一次不會重複扣回
	n, err = sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, f.sold(t))
}

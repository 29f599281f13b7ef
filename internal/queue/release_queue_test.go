package queue_test

import (
	"context"
	"testing"
	"time"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/queue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask() *model.ReleaseTask {
	return &model.ReleaseTask{
		ReservationID: uuid.New(),
		EventUUID:     uuid.New(),
		Admitted:      true,
		Reason:        "ticket write failed",
		CreatedAt:     time.Now().UTC(),
	}
}

func receive(t *testing.T, ctx context.Context, ch <-chan queue.Delivery) queue.Delivery {
	t.Helper()
	select {
	case d, ok := <-ch:
		require.True(t, ok, "channel closed")
		return d
	case <-ctx.Done():
		t.Fatal("timeout 未收到訊息")
		return queue.Delivery{}
	}
}

func TestMemoryReleaseQueue_Deliver(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewMemoryReleaseQueue(4, 3)
	task := newTask()
	require.NoError(t, q.PublishRelease(ctx, task))

	ch, err := q.SubscribeReleases(ctx)
	require.NoError(t, err)

	d := receive(t, ctx, ch)
	assert.Equal(t, task.ReservationID, d.Data.ReservationID)
	d.Ack()
}

func TestMemoryReleaseQueue_NackRequeue(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewMemoryReleaseQueue(4, 3)
	task := newTask()
	require.NoError(t, q.PublishRelease(ctx, task))

	ch, err := q.SubscribeReleases(ctx)
	require.NoError(t, err)

	first := receive(t, ctx, ch)
	first.Nack(true)

	second := receive(t, ctx, ch)
	assert.Equal(t, task.ReservationID, second.Data.ReservationID)
	second.Ack()
}

func TestMemoryReleaseQueue_GivesUpAfterMaxRetries(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewMemoryReleaseQueue(4, 2)
	require.NoError(t, q.PublishRelease(ctx, newTask()))

	ch, err := q.SubscribeReleases(ctx)
	require.NoError(t, err)

	receive(t, ctx, ch).Nack(true)
	receive(t, ctx, ch).Nack(true)

	select {
	case d := <-ch:
		t.Fatalf("unexpected redelivery of %s", d.Data.ReservationID)
	case <-time.After(100 * time.Millisecond):
	}
}

package service_test

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
	"go-gin-event-ticketing/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type flakyCapacity struct {
	failures int32
	calls    atomic.Int32
}

func (f *flakyCapacity) Reserve(ctx context.Context, eventID uuid.UUID) (*model.Reservation, error) {
	return nil, errors.New("not used")
}

func (f *flakyCapacity) Release(ctx context.Context, res *model.Reservation) error {
	if f.calls.Add(1) <= f.failures {
		return errors.New("deadlock detected")
	}
	return nil
}

type failingQueue struct{}

func (failingQueue) PublishRelease(ctx context.Context, task *model.ReleaseTask) error {
	return errors.New("redis unavailable")
}

func (failingQueue) SubscribeReleases(ctx context.Context) (<-chan queue.Delivery, error) {
	return nil, errors.New("redis unavailable")
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	prev := logger.L
	logger.L = zap.New(core)
	t.Cleanup(func() { logger.L = prev })
	return logs
}

var fastRetry = service.CompensatorConfig{MaxTries: 4, MaxElapsed: time.Second, InitialInterval: time.Millisecond}

func TestCompensator_RetriesUntilReleased(t *testing.T) {
	capacity := &flakyCapacity{failures: 2}
	c := service.NewCompensator(capacity, nil, clock.NewSystem(), fastRetry)

	c.Compensate(context.Background(), &model.Reservation{ID: uuid.New(), EventUUID: uuid.New()}, "ticket write failed")
	assert.Equal(t, int32(3), capacity.calls.Load())
}

func TestCompensator_SurvivesCancelledRequest(t *testing.T) {
	capacity := &flakyCapacity{failures: 1}
	c := service.NewCompensator(capacity, nil, clock.NewSystem(), fastRetry)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Compensate(ctx, &model.Reservation{ID: uuid.New(), EventUUID: uuid.New()}, "client went away")
	assert.Equal(t, int32(2), capacity.calls.Load())
}

func TestCompensator_ManualReconciliation(t *testing.T) {
	for _, tc := range []struct {
		name  string
		queue bool
	}{
		{name: "NoQueue"},
		{name: "QueueDown", queue: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			logs := observeLogs(t)
			capacity := &flakyCapacity{failures: 100}

			var c *service.Compensator
			if tc.queue {
				c = service.NewCompensator(capacity, failingQueue{}, clock.NewSystem(), fastRetry)
			} else {
				c = service.NewCompensator(capacity, nil, clock.NewSystem(), fastRetry)
			}

			res := &model.Reservation{ID: uuid.New(), EventUUID: uuid.New()}
			c.Compensate(context.Background(), res, "ticket write failed")
			assert.Equal(t, int32(fastRetry.MaxTries), capacity.calls.Load())

			entries := logs.FilterField(zap.Bool("manual_reconciliation", true)).All()
			require.Len(t, entries, 1)
			assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
			assert.Equal(t, res.ID.String(), entries[0].ContextMap()["reservation_id"])
		})
	}
}

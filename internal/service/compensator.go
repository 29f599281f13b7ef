package service

import (
	"context"
	"time"

	"go-gin-event-ticketing/internal/clock"
	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/queue"
	"go-gin-event-ticketing/pkg/logger"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Compensator 出票失敗後釋放座位預留。就地重試用盡後交給 release queue，
// queue 也失敗時記錄為人工對帳，釋放失敗絕不靜默丟棄
type Compensator struct {
	capacity   CapacityManager
	queue      queue.ReleaseQueue
	clock      clock.Clock
	maxTries   uint
	maxElapsed time.Duration
	interval   time.Duration
}

type CompensatorConfig struct {
	MaxTries        uint
	MaxElapsed      time.Duration
	InitialInterval time.Duration
}

// NewCompensator releaseQueue 可為 nil
func NewCompensator(capacity CapacityManager, releaseQueue queue.ReleaseQueue, clk clock.Clock, cfg CompensatorConfig) *Compensator {
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 5
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 5 * time.Second
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 50 * time.Millisecond
	}
	return &Compensator{
		capacity:   capacity,
		queue:      releaseQueue,
		clock:      clk,
		maxTries:   cfg.MaxTries,
		maxElapsed: cfg.MaxElapsed,
		interval:   cfg.InitialInterval,
	}
}

// Compensate 使用與請求脫鉤的 context，用戶斷線也要把座位還回去
func (c *Compensator) Compensate(ctx context.Context, res *model.Reservation, reason string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.maxElapsed+time.Second)
	defer cancel()

	log := logger.WithComponent("service").With(
		zap.String("reservation_id", res.ID.String()),
		zap.String("event_id", res.EventUUID.String()),
	)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.interval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, c.capacity.Release(ctx, res)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithMaxElapsedTime(c.maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn("release reservation failed, retrying", zap.Error(err), zap.Duration("next", next))
		}),
	)
	if err == nil {
		log.Info("reservation released", zap.String("reason", reason))
		return
	}

	task := &model.ReleaseTask{
		ReservationID: res.ID,
		EventUUID:     res.EventUUID,
		Admitted:      res.Admitted,
		Reason:        reason,
		CreatedAt:     c.clock.Now(),
	}
	if c.queue == nil {
		queue.LogManualReconciliation(task, "release retries exhausted, no release queue", zap.Error(err))
		return
	}
	if qErr := c.queue.PublishRelease(ctx, task); qErr != nil {
		queue.LogManualReconciliation(task, "release retries exhausted, enqueue failed",
			zap.Error(err), zap.NamedError("queue_error", qErr))
		return
	}
	log.Warn("release handed to release queue", zap.Error(err))
}

package worker

import (
	"context"
	"time"

	"go-gin-event-ticketing/internal/clock"
	"go-gin-event-ticketing/internal/repository"
	"go-gin-event-ticketing/internal/service"
	"go-gin-event-ticketing/pkg/logger"

	"go.uber.org/zap"
)

const sweepBatchSize = 100

// ReservationSweeper 釋放停留在 reserved 超過 TTL 的預留（程序在預留與寫票之間崩潰）
type ReservationSweeper struct {
	events   repository.EventRepository
	capacity service.CapacityManager
	clock    clock.Clock
	ttl      time.Duration
	interval time.Duration
}

func NewReservationSweeper(events repository.EventRepository, capacity service.CapacityManager, clk clock.Clock, ttl, interval time.Duration) *ReservationSweeper {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ReservationSweeper{events: events, capacity: capacity, clock: clk, ttl: ttl, interval: interval}
}

func (s *ReservationSweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
					logger.WithComponent("worker").Error("sweep stale reservations failed", zap.Error(err))
				}
			}
		}
	}()
}

// SweepOnce 回傳本次釋放的數量
func (s *ReservationSweeper) SweepOnce(ctx context.Context) (int, error) {
	stale, err := s.events.ListStaleReservations(ctx, s.clock.Now().Add(-s.ttl), sweepBatchSize)
	if err != nil {
		return 0, err
	}

	log := logger.WithComponent("worker")
	released := 0
	for _, res := range stale {
		// 無法得知當初是否經過 Redis 閘門；多歸還一個座位只會讓 Redis 多放行，資料庫仍會擋下
		res.Admitted = true
		if err := s.capacity.Release(ctx, res); err != nil {
			log.Warn("release stale reservation failed", zap.String("reservation_id", res.ID.String()), zap.Error(err))
			continue
		}
		released++
	}
	if released > 0 {
		log.Info("stale reservations released", zap.Int("count", released))
	}
	return released, nil
}

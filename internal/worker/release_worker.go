package worker

import (
	"context"
	"fmt"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/queue"
	"go-gin-event-ticketing/internal/service"
	"go-gin-event-ticketing/pkg/logger"

	"go.uber.org/zap"
)

type ReleaseWorker interface {
	// 訂閱 release queue，持續釋放補償任務
	Start(ctx context.Context) error
}

type ReleaseWorkerImpl struct {
	capacity service.CapacityManager
	queue    queue.ReleaseQueue
}

func NewReleaseWorker(capacity service.CapacityManager, queue queue.ReleaseQueue) ReleaseWorker {
	return &ReleaseWorkerImpl{
		capacity: capacity,
		queue:    queue,
	}
}

func (w *ReleaseWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeReleases(ctx)
	if err != nil {
		return fmt.Errorf("subscribe releases: %w", err)
	}

	log := logger.WithComponent("worker")
	go func() {
		for msg := range msgs {
			task := msg.Data
			res := &model.Reservation{
				ID:        task.ReservationID,
				EventUUID: task.EventUUID,
				Admitted:  task.Admitted,
			}
			if err := w.capacity.Release(ctx, res); err != nil {
				// 資料庫暫時不可用，交回 queue 稍後重試
				log.Warn("release task failed, requeue",
					zap.String("reservation_id", task.ReservationID.String()), zap.Error(err))
				msg.Nack(true)
				continue
			}
			log.Info("release task done",
				zap.String("reservation_id", task.ReservationID.String()),
				zap.String("reason", task.Reason))
			msg.Ack()
		}
	}()
	return nil
}

package queue

import (
	"context"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/pkg/logger"

	"go.uber.org/zap"
)

type Delivery struct {
	Data *model.ReleaseTask
	Ack  func()
	Nack func(requeue bool)
}

// ReleaseQueue 補償釋放任務佇列。issuer 的就地重試失敗後，任務改由 worker 持續重試
type ReleaseQueue interface {
	PublishRelease(ctx context.Context, task *model.ReleaseTask) error
	SubscribeReleases(ctx context.Context) (<-chan Delivery, error)
}

// LogManualReconciliation 重試用盡仍無法釋放時的最後手段，必須人工對帳
func LogManualReconciliation(task *model.ReleaseTask, reason string, fields ...zap.Field) {
	base := []zap.Field{
		zap.Bool("manual_reconciliation", true),
		zap.String("reason", reason),
	}
	if task != nil {
		base = append(base,
			zap.String("reservation_id", task.ReservationID.String()),
			zap.String("event_id", task.EventUUID.String()),
			zap.Bool("admitted", task.Admitted),
		)
	}
	logger.WithComponent("mq").Error("seat release abandoned, manual reconciliation required", append(base, fields...)...)
}

type memoryItem struct {
	task     *model.ReleaseTask
	attempts int
}

type MemoryReleaseQueue struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch         chan memoryItem
	maxRetries int
}

func NewMemoryReleaseQueue(bufferSize int, maxRetries int) ReleaseQueue {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &MemoryReleaseQueue{
		ch:         make(chan memoryItem, bufferSize),
		maxRetries: maxRetries,
	}
}

func (q *MemoryReleaseQueue) PublishRelease(ctx context.Context, task *model.ReleaseTask) error {
	select {
	case q.ch <- memoryItem{task: task}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryReleaseQueue) SubscribeReleases(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				q.drain()
				return
			case item := <-q.ch:
				d := Delivery{
					Data: item.task,
					Ack:  func() {},
					Nack: func(requeue bool) {
						if !requeue {
							return
						}
						item.attempts++
						if item.attempts >= q.maxRetries {
							LogManualReconciliation(item.task, "max retries exceeded", zap.Int("retries", item.attempts))
							return
						}
						// 重回隊列，不阻塞消費端
						go func() {
							select {
							case q.ch <- item:
							case <-ctx.Done():
								LogManualReconciliation(item.task, "queue stopped before retry")
							}
						}()
					},
				}
				select {
				case out <- d:
				case <-ctx.Done():
					LogManualReconciliation(item.task, "queue stopped before delivery")
					return
				}
			}
		}
	}()

	return out, nil
}

// drain 記憶體版不具持久性，停止時把尚未處理的任務記錄下來
func (q *MemoryReleaseQueue) drain() {
	for {
		select {
		case item := <-q.ch:
			LogManualReconciliation(item.task, "queue stopped with pending task")
		default:
			return
		}
	}
}

package service

import (
	"context"
	"errors"
	"fmt"

	"go-gin-event-ticketing/internal/cache"
	"go-gin-event-ticketing/internal/clock"
	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/repository"
	"go-gin-event-ticketing/internal/telemetry"
	apperrors "go-gin-event-ticketing/pkg/app_errors"
	"go-gin-event-ticketing/pkg/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CapacityManager 擁有活動的容量、已售、營收計數，以及決定能否出票的唯一閘門
type CapacityManager interface {
	// Reserve 原子地檢查並遞增計數，回傳 reservation token
	Reserve(ctx context.Context, eventID uuid.UUID) (*model.Reservation, error)
	// Release 補償：扣回計數。重複呼叫不會重複扣回
	Release(ctx context.Context, res *model.Reservation) error
}

type CapacityManagerImpl struct {
	events    repository.EventRepository
	inventory cache.EventInventory
	clock     clock.Clock
}

// NewCapacityManager inventory 可為 nil，此時只走資料庫閘門
func NewCapacityManager(events repository.EventRepository, inventory cache.EventInventory, clk clock.Clock) CapacityManager {
	return &CapacityManagerImpl{
		events:    events,
		inventory: inventory,
		clock:     clk,
	}
}

func (m *CapacityManagerImpl) Reserve(ctx context.Context, eventID uuid.UUID) (res *model.Reservation, err error) {
	ctx, span := telemetry.StartSpan(ctx, "capacity.reserve", attribute.String("event.id", eventID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	gate, err := m.admit(ctx, eventID)
	if err != nil {
		return nil, err
	}
	admitted := gate == gateAdmitted

	res, err = retryOnContention(func() (*model.Reservation, error) {
		return m.events.ReserveSeat(ctx, eventID, uuid.New(), m.clock.Now())
	})
	if err != nil {
		switch {
		case admitted && errors.Is(err, apperrors.ErrEventSoldOut):
			// Redis 多算：資料庫已滿，閘門歸零
			m.resync(ctx, eventID, 0)
		case admitted:
			m.restore(ctx, eventID)
		}
		return nil, err
	}

	if gate == gateNotWarmed {
		m.resync(ctx, eventID, res.Event.RemainingSeats())
	}
	res.Admitted = admitted
	return res, nil
}

type gateResult int

const (
	gateAdmitted gateResult = iota
	gateNotWarmed
	gateUnavailable
)

// admit 先過 Redis 入場閘門。Redis 不可用或未預熱時退回資料庫閘門
func (m *CapacityManagerImpl) admit(ctx context.Context, eventID uuid.UUID) (gateResult, error) {
	if m.inventory == nil {
		return gateUnavailable, nil
	}

	err := m.inventory.Admit(ctx, eventID)
	switch {
	case err == nil:
		return gateAdmitted, nil
	case errors.Is(err, apperrors.ErrEventSoldOut):
		return m.confirmSoldOut(ctx, eventID, err)
	case errors.Is(err, apperrors.ErrInventoryNotWarmed):
		return gateNotWarmed, nil
	default:
		logger.WithComponent("cache").Warn("admission gate unavailable, falling back to database",
			zap.String("event_id", eventID.String()), zap.Error(err))
		return gateUnavailable, nil
	}
}

// confirmSoldOut Redis 回報售罄時以資料庫計數確認；資料庫仍有座位代表閘門少算，重新預熱後再放行一次
func (m *CapacityManagerImpl) confirmSoldOut(ctx context.Context, eventID uuid.UUID, soldOut error) (gateResult, error) {
	event, err := m.events.FindByEventID(ctx, eventID)
	if err != nil {
		if errors.Is(err, apperrors.ErrEventNotFound) {
			return gateUnavailable, err
		}
		logger.WithComponent("cache").Warn("confirm sold out failed", zap.String("event_id", eventID.String()), zap.Error(err))
		return gateUnavailable, soldOut
	}
	if event.Status != model.EventStatusPublished {
		// 交給資料庫閘門分類
		return gateUnavailable, nil
	}
	remaining := event.RemainingSeats()
	if remaining <= 0 {
		return gateUnavailable, soldOut
	}

	logger.WithComponent("cache").Info("admission gate under-counted, resyncing from database",
		zap.String("event_id", eventID.String()), zap.Int("remaining", remaining))
	if err := m.inventory.WarmUp(ctx, eventID, remaining); err != nil {
		return gateUnavailable, nil
	}
	if err := m.inventory.Admit(ctx, eventID); err != nil {
		return gateUnavailable, nil
	}
	return gateAdmitted, nil
}

func (m *CapacityManagerImpl) Release(ctx context.Context, res *model.Reservation) error {
	released, err := m.events.ReleaseSeat(ctx, res.ID)
	if err != nil {
		return fmt.Errorf("release reservation %s: %w", res.ID, err)
	}
	if released && res.Admitted {
		m.restore(ctx, res.EventUUID)
	}
	return nil
}

// restore 歸還失敗時移除 key，之後的請求改走資料庫閘門並重新預熱
func (m *CapacityManagerImpl) restore(ctx context.Context, eventID uuid.UUID) {
	if m.inventory == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	log := logger.WithComponent("cache").With(zap.String("event_id", eventID.String()))

	err := m.inventory.Restore(ctx, eventID)
	if err == nil {
		return
	}
	log.Warn("restore admission seat failed, evicting gate", zap.Error(err))
	if evictErr := m.inventory.Evict(ctx, eventID); evictErr != nil {
		log.Error("evict admission gate failed",
			zap.Bool("manual_reconciliation", true),
			zap.NamedError("restore_error", err),
			zap.Error(evictErr))
	}
}

func (m *CapacityManagerImpl) resync(ctx context.Context, eventID uuid.UUID, remaining int) {
	if err := m.inventory.WarmUp(context.WithoutCancel(ctx), eventID, remaining); err != nil {
		logger.WithComponent("cache").Warn("resync admission gate failed",
			zap.String("event_id", eventID.String()), zap.Error(err))
	}
}

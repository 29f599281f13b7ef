package testutil

import (
	"context"
	"errors"
	"sync"

	"go-gin-event-ticketing/internal/model"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/google/uuid"
)

// MemInventory 記憶體版入場閘門，行為與 Redis Lua script 相同
type MemInventory struct {
	mu    sync.Mutex
	seats map[uuid.UUID]int

	// Down 為 true 時所有操作回傳錯誤，模擬 Redis 不可用
	Down bool
	// RestoreErr 只讓 Restore 失敗
	RestoreErr error
}

var ErrInventoryDown = errors.New("inventory unavailable")

func NewMemInventory() *MemInventory {
	return &MemInventory{seats: make(map[uuid.UUID]int)}
}

func (m *MemInventory) WarmUp(ctx context.Context, eventID uuid.UUID, remaining int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Down {
		return ErrInventoryDown
	}
	if remaining < 0 {
		remaining = 0
	}
	m.seats[eventID] = remaining
	return nil
}

func (m *MemInventory) Admit(ctx context.Context, eventID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Down {
		return ErrInventoryDown
	}
	n, ok := m.seats[eventID]
	if !ok {
		return apperrors.ErrInventoryNotWarmed
	}
	if n <= 0 {
		return apperrors.ErrEventSoldOut
	}
	m.seats[eventID] = n - 1
	return nil
}

func (m *MemInventory) Restore(ctx context.Context, eventID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Down {
		return ErrInventoryDown
	}
	if m.RestoreErr != nil {
		return m.RestoreErr
	}
	if n, ok := m.seats[eventID]; ok {
		m.seats[eventID] = n + 1
	}
	return nil
}

func (m *MemInventory) Remaining(ctx context.Context, eventID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Down {
		return -1, ErrInventoryDown
	}
	n, ok := m.seats[eventID]
	if !ok {
		return -1, apperrors.ErrInventoryNotWarmed
	}
	return n, nil
}

func (m *MemInventory) Evict(ctx context.Context, eventID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Down {
		return ErrInventoryDown
	}
	delete(m.seats, eventID)
	return nil
}

// RecordingPublisher 記錄所有發佈的票券事件
type RecordingPublisher struct {
	mu     sync.Mutex
	events []model.TicketEvent
	Err    error
}

func (p *RecordingPublisher) Publish(ctx context.Context, event model.TicketEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *RecordingPublisher) Close() {}

func (p *RecordingPublisher) Events() []model.TicketEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.TicketEvent, len(p.events))
	copy(out, p.events)
	return out
}

// Types 依序回傳事件類型
func (p *RecordingPublisher) Types() []model.TicketEventType {
	events := p.Events()
	out := make([]model.TicketEventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

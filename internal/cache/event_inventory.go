package cache

import (
	"context"
	"errors"
	"fmt"

	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventInventory 是 Redis 上的入場閘門，只鏡像剩餘座位數。
// Postgres 的條件更新仍是唯一權威，這裡只負責在售罄後擋掉打到資料庫的流量。
type EventInventory interface {
	// 預熱：發佈活動時寫入剩餘座位
	WarmUp(ctx context.Context, eventID uuid.UUID, remaining int) error
	// 扣減一個座位 (Lua 確保原子性)；未預熱回傳 ErrInventoryNotWarmed，售罄回傳 ErrEventSoldOut
	Admit(ctx context.Context, eventID uuid.UUID) error
	// 歸還一個座位，key 不存在時不做事
	Restore(ctx context.Context, eventID uuid.UUID) error
	Remaining(ctx context.Context, eventID uuid.UUID) (int, error)
	Evict(ctx context.Context, eventID uuid.UUID) error
}

type RedisEventInventory struct {
	client *redis.Client
}

func NewRedisEventInventory(client *redis.Client) EventInventory {
	return &RedisEventInventory{
		client: client,
	}
}

func seatsKey(eventID uuid.UUID) string {
	return fmt.Sprintf("event:%s:seats", eventID)
}

var admitScript = redis.NewScript(`
	local seats = redis.call('GET', KEYS[1])
	if not seats then
		return -2 -- 未預熱
	end
	if tonumber(seats) <= 0 then
		return -1 -- 售罄
	end
	return redis.call('DECR', KEYS[1])
`)

var restoreScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 0 then
		return -2
	end
	return redis.call('INCR', KEYS[1])
`)

func (m *RedisEventInventory) WarmUp(ctx context.Context, eventID uuid.UUID, remaining int) error {
	if remaining < 0 {
		remaining = 0
	}
	return m.client.Set(ctx, seatsKey(eventID), remaining, 0).Err()
}

func (m *RedisEventInventory) Admit(ctx context.Context, eventID uuid.UUID) error {
	code, err := admitScript.Run(ctx, m.client, []string{seatsKey(eventID)}).Int64()
	if err != nil {
		return fmt.Errorf("admit script: %w", err)
	}
	switch {
	case code >= 0:
		return nil
	case code == -1:
		return apperrors.ErrEventSoldOut
	case code == -2:
		return apperrors.ErrInventoryNotWarmed
	default:
		return errors.New("unexpected admit result")
	}
}

func (m *RedisEventInventory) Restore(ctx context.Context, eventID uuid.UUID) error {
	if err := restoreScript.Run(ctx, m.client, []string{seatsKey(eventID)}).Err(); err != nil {
		return fmt.Errorf("restore script: %w", err)
	}
	return nil
}

func (m *RedisEventInventory) Remaining(ctx context.Context, eventID uuid.UUID) (int, error) {
	n, err := m.client.Get(ctx, seatsKey(eventID)).Int()
	if errors.Is(err, redis.Nil) {
		return -1, apperrors.ErrInventoryNotWarmed
	}
	return n, err
}

func (m *RedisEventInventory) Evict(ctx context.Context, eventID uuid.UUID) error {
	return m.client.Del(ctx, seatsKey(eventID)).Err()
}

package testutil

import (
	"context"
	"testing"
	"time"

	"go-gin-event-ticketing/config"
	"go-gin-event-ticketing/internal/database"
	"go-gin-event-ticketing/internal/database/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Setup 連線測試用 Postgres 與 Redis 並套用 migration；測試基礎設施不可用時直接 skip
func Setup(t *testing.T) (*pgxpool.Pool, *redis.Client) {
	t.Helper()
	pool := SetupDatabase(t)
	rdb := SetupRedis(t)
	return pool, rdb
}

func SetupDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cfg := config.LoadTestConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	pool, err := database.InitDatabase(ctx, &cfg.Database)
	if err != nil {
		t.Skipf("test database not reachable: %v", err)
	}
	if err := migrations.Apply(context.Background(), pool); err != nil {
		pool.Close()
		t.Fatalf("apply migrations: %v", err)
	}
	t.Cleanup(pool.Close)

	Truncate(t, pool)
	return pool
}

// SetupRedis 僅初始化 Redis，用於只依賴 Redis 的測試（如 queue 整合測試）
func SetupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cfg := config.LoadTestConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb, err := database.InitRedis(ctx, &cfg.Redis)
	if err != nil {
		t.Skipf("test redis not reachable: %v", err)
	}
	if err := rdb.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// Truncate 清空所有測試資料，保留 schema
func Truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		"TRUNCATE event_comments, tickets, seat_reservations, events, users RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

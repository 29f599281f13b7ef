package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-gin-event-ticketing/config"
	"go-gin-event-ticketing/internal/authz"
	"go-gin-event-ticketing/internal/cache"
	"go-gin-event-ticketing/internal/clock"
	"go-gin-event-ticketing/internal/database"
	"go-gin-event-ticketing/internal/database/migrations"
	"go-gin-event-ticketing/internal/events"
	"go-gin-event-ticketing/internal/handler"
	"go-gin-event-ticketing/internal/middleware"
	"go-gin-event-ticketing/internal/queue"
	"go-gin-event-ticketing/internal/repository"
	"go-gin-event-ticketing/internal/service"
	"go-gin-event-ticketing/internal/telemetry"
	"go-gin-event-ticketing/internal/webinar"
	"go-gin-event-ticketing/internal/worker"
	"go-gin-event-ticketing/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.SetLevel(cfg.Server.LogLevel)
	defer logger.L.Sync()

	if err := cfg.Validate(); err != nil {
		logger.L.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := telemetry.Init(ctx, telemetry.Config{
		Enabled:       cfg.OTel.Enabled,
		ServiceName:   cfg.OTel.ServiceName,
		Environment:   cfg.OTel.Environment,
		CollectorAddr: cfg.OTel.CollectorAddr,
	}); err != nil {
		logger.L.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	pool, err := database.InitDatabase(ctx, &cfg.Database)
	if err != nil {
		logger.L.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		logger.L.Fatal("Failed to apply migrations", zap.Error(err))
	}

	rdb, err := database.InitRedis(ctx, &cfg.Redis)
	if err != nil {
		logger.L.Fatal("Failed to initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	clk := clock.NewSystem()
	userRepo := repository.NewUserRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	var inventory cache.EventInventory
	if cfg.Issuance.AdmissionCache {
		inventory = cache.NewRedisEventInventory(rdb)
	}

	releaseQueue, err := newReleaseQueue(ctx, cfg, rdb)
	if err != nil {
		logger.L.Fatal("Failed to initialize release queue", zap.Error(err))
	}

	publisher := newPublisher(cfg)
	defer publisher.Close()

	accessPolicy, err := service.ParseAccessPolicy(cfg.Issuance.WebinarAccessPolicy)
	if err != nil {
		logger.L.Fatal("Invalid webinar access policy", zap.Error(err))
	}

	policy := authz.NewPolicy()
	capacity := service.NewCapacityManager(eventRepo, inventory, clk)
	compensator := service.NewCompensator(capacity, releaseQueue, clk, service.CompensatorConfig{
		MaxTries:   cfg.Issuance.ReleaseMaxTries,
		MaxElapsed: cfg.Issuance.ReleaseMaxElapsed,
	})
	issuer := service.NewTicketIssuer(userRepo, ticketRepo, capacity, service.NewTicketCodeGenerator(), compensator, publisher, clk)
	validator := service.NewTicketValidator(ticketRepo, publisher, clk)
	gate := service.NewWebinarAccessGate(ticketRepo, validator, accessPolicy)
	youtube := webinar.NewYouTubeClient(cfg.YouTube.BaseURL, cfg.YouTube.Timeout)

	ticketService := service.NewTicketService(userRepo, eventRepo, ticketRepo, issuer, validator, policy)
	eventService := service.NewEventService(userRepo, eventRepo, inventory, policy)
	webinarService := service.NewWebinarService(userRepo, eventRepo, youtube, gate, policy, clk, cfg.YouTube.BroadcastDuration)
	userService := service.NewUserService(userRepo)

	if err := worker.NewReleaseWorker(capacity, releaseQueue).Start(ctx); err != nil {
		logger.L.Fatal("Failed to start release worker", zap.Error(err))
	}
	worker.NewReservationSweeper(eventRepo, capacity, clk, cfg.Issuance.ReservationTTL, cfg.Issuance.SweepInterval).Start(ctx)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		telemetry.TracingMiddleware(),
		middleware.Logger(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middleware.Auth(cfg.JWT.Secret, cfg.JWT.CookieName)
	handler.NewTicketHandler(ticketService).RegisterRoutes(router, auth)
	handler.NewEventHandler(eventService).RegisterRoutes(router, auth)
	handler.NewWebinarHandler(webinarService).RegisterRoutes(router, auth)
	handler.NewUserHandler(userService).RegisterRoutes(router, auth)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.L.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.L.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.L.Warn("Telemetry shutdown failed", zap.Error(err))
	}
	logger.L.Info("Server exited")
}

func newReleaseQueue(ctx context.Context, cfg *config.Config, rdb *redis.Client) (queue.ReleaseQueue, error) {
	if cfg.ReleaseQueue.Backend == "memory" {
		return queue.NewMemoryReleaseQueue(cfg.ReleaseQueue.BufferSize, cfg.ReleaseQueue.MaxRetryCount), nil
	}
	hostname, _ := os.Hostname()
	return queue.NewRedisStreamReleaseQueue(ctx, rdb, hostname, &queue.RedisStreamConfig{
		ClaimMinIdleTime:   cfg.ReleaseQueue.ClaimMinIdleTime,
		MaxRetryCount:      cfg.ReleaseQueue.MaxRetryCount,
		ReadGroupBlockTime: cfg.ReleaseQueue.ReadGroupBlockTime,
	})
}

// newPublisher 未設定 broker 時不發佈事件
func newPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.L.Info("Kafka brokers not configured, ticket events are not published")
		return events.NoopPublisher{}
	}
	publisher, err := events.NewKafkaPublisher(events.KafkaConfig{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       cfg.Kafka.Topic,
		ClientID:    cfg.Kafka.ClientID,
		ServiceName: cfg.OTel.ServiceName,
	})
	if err != nil {
		logger.L.Fatal("Failed to create kafka publisher", zap.Error(err))
	}
	return publisher
}

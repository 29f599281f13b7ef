package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Kafka        KafkaConfig
	OTel         OTelConfig
	YouTube      YouTubeConfig
	Issuance     IssuanceConfig
	ReleaseQueue ReleaseQueueConfig
	CORS         CORSConfig
}

type ServerConfig struct {
	Port            string
	Mode            string
	LogLevel        string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	CookieName string
}

type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

type OTelConfig struct {
	Enabled       bool
	ServiceName   string
	CollectorAddr string
	Environment   string
}

type YouTubeConfig struct {
	BaseURL string
	Timeout time.Duration
	// BroadcastDuration 直播預設長度
	BroadcastDuration time.Duration
}

// IssuanceConfig 出票流程相關參數
type IssuanceConfig struct {
	ReleaseMaxTries     uint
	ReleaseMaxElapsed   time.Duration
	ReservationTTL      time.Duration
	SweepInterval       time.Duration
	AdmissionCache      bool
	WebinarAccessPolicy string
}

type ReleaseQueueConfig struct {
	Backend            string // "redis" or "memory"
	ClaimMinIdleTime   time.Duration
	MaxRetryCount      int
	ReadGroupBlockTime time.Duration
	BufferSize         int
}

type CORSConfig struct {
	AllowedOrigins []string
}

var AppConfig *Config

func LoadConfig() *Config {
	v := newViper()

	AppConfig = &Config{
		Server:       getServerConfig(v),
		Database:     getDatabaseConfig(v),
		Redis:        getRedisConfig(v),
		JWT:          getJWTConfig(v),
		Kafka:        getKafkaConfig(v),
		OTel:         getOTelConfig(v),
		YouTube:      getYouTubeConfig(v),
		Issuance:     getIssuanceConfig(v),
		ReleaseQueue: getReleaseQueueConfig(v),
		CORS:         CORSConfig{AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS"))},
	}

	return AppConfig
}

func LoadTestConfig() *Config {
	v := newViper()

	cfg := &Config{
		Server:       getServerConfig(v),
		Database:     getDatabaseConfig(v),
		Redis:        getRedisConfig(v),
		JWT:          JWTConfig{Secret: "test-secret", CookieName: "token"},
		Kafka:        KafkaConfig{Topic: "ticket-events-test", ClientID: "ticketing-test"},
		OTel:         OTelConfig{ServiceName: "ticketing-test"},
		YouTube:      getYouTubeConfig(v),
		Issuance:     getIssuanceConfig(v),
		ReleaseQueue: getReleaseQueueConfig(v),
	}

	// 測試 DB 用 5433 port、測試 Redis 用 6380 port
	cfg.Database.Port = v.GetString("TEST_DB_PORT")
	cfg.Database.DBName = v.GetString("TEST_DB_NAME")
	cfg.Redis.Port = v.GetString("TEST_REDIS_PORT")
	cfg.Redis.DB = 1
	cfg.Server.Mode = "test"

	return cfg
}

// Validate 檢查啟動所需的必要設定
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		return errors.New("database host and name are required")
	}
	switch c.ReleaseQueue.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown release queue backend %q", c.ReleaseQueue.Backend)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	// .env 不存在時直接使用環境變數
	_ = v.ReadInConfig()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 25)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("TEST_DB_PORT", "5433")
	v.SetDefault("TEST_DB_NAME", "test_db")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("TEST_REDIS_PORT", "6380")

	v.SetDefault("JWT_COOKIE_NAME", "token")

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "ticket-events")
	v.SetDefault("KAFKA_CLIENT_ID", "ticketing-api")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "ticketing-api")
	v.SetDefault("OTEL_COLLECTOR_ADDR", "localhost:4317")
	v.SetDefault("APP_ENVIRONMENT", "development")

	v.SetDefault("YOUTUBE_BASE_URL", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("YOUTUBE_TIMEOUT", "10s")
	v.SetDefault("YOUTUBE_BROADCAST_DURATION", "2h")

	v.SetDefault("ISSUANCE_RELEASE_MAX_TRIES", 5)
	v.SetDefault("ISSUANCE_RELEASE_MAX_ELAPSED", "5s")
	v.SetDefault("ISSUANCE_RESERVATION_TTL", "2m")
	v.SetDefault("ISSUANCE_SWEEP_INTERVAL", "30s")
	v.SetDefault("ISSUANCE_ADMISSION_CACHE", true)
	v.SetDefault("WEBINAR_ACCESS_POLICY", "unused")

	v.SetDefault("RELEASE_QUEUE_BACKEND", "redis")
	v.SetDefault("RELEASE_QUEUE_CLAIM_MIN_IDLE", "5s")
	v.SetDefault("RELEASE_QUEUE_MAX_RETRY", 10)
	v.SetDefault("RELEASE_QUEUE_BLOCK", "2s")
	v.SetDefault("RELEASE_QUEUE_BUFFER", 1024)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
}

func getServerConfig(v *viper.Viper) ServerConfig {
	return ServerConfig{
		Port:            v.GetString("SERVER_PORT"),
		Mode:            v.GetString("GIN_MODE"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
	}
}

func getDatabaseConfig(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		Host:     v.GetString("DB_HOST"),
		Port:     v.GetString("DB_PORT"),
		User:     v.GetString("DB_USER"),
		Password: v.GetString("DB_PASSWORD"),
		DBName:   v.GetString("DB_NAME"),
		SSLMode:  v.GetString("DB_SSL_MODE"),
		MaxConns: v.GetInt32("DB_MAX_CONNS"),
		MinConns: v.GetInt32("DB_MIN_CONNS"),
	}
}

func getRedisConfig(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetString("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}
}

func getJWTConfig(v *viper.Viper) JWTConfig {
	return JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		CookieName: v.GetString("JWT_COOKIE_NAME"),
	}
}

func getKafkaConfig(v *viper.Viper) KafkaConfig {
	return KafkaConfig{
		Brokers:  splitList(v.GetString("KAFKA_BROKERS")),
		Topic:    v.GetString("KAFKA_TOPIC"),
		ClientID: v.GetString("KAFKA_CLIENT_ID"),
	}
}

func getOTelConfig(v *viper.Viper) OTelConfig {
	return OTelConfig{
		Enabled:       v.GetBool("OTEL_ENABLED"),
		ServiceName:   v.GetString("OTEL_SERVICE_NAME"),
		CollectorAddr: v.GetString("OTEL_COLLECTOR_ADDR"),
		Environment:   v.GetString("APP_ENVIRONMENT"),
	}
}

func getYouTubeConfig(v *viper.Viper) YouTubeConfig {
	return YouTubeConfig{
		BaseURL:           v.GetString("YOUTUBE_BASE_URL"),
		Timeout:           v.GetDuration("YOUTUBE_TIMEOUT"),
		BroadcastDuration: v.GetDuration("YOUTUBE_BROADCAST_DURATION"),
	}
}

func getIssuanceConfig(v *viper.Viper) IssuanceConfig {
	return IssuanceConfig{
		ReleaseMaxTries:     v.GetUint("ISSUANCE_RELEASE_MAX_TRIES"),
		ReleaseMaxElapsed:   v.GetDuration("ISSUANCE_RELEASE_MAX_ELAPSED"),
		ReservationTTL:      v.GetDuration("ISSUANCE_RESERVATION_TTL"),
		SweepInterval:       v.GetDuration("ISSUANCE_SWEEP_INTERVAL"),
		AdmissionCache:      v.GetBool("ISSUANCE_ADMISSION_CACHE"),
		WebinarAccessPolicy: v.GetString("WEBINAR_ACCESS_POLICY"),
	}
}

func getReleaseQueueConfig(v *viper.Viper) ReleaseQueueConfig {
	return ReleaseQueueConfig{
		Backend:            v.GetString("RELEASE_QUEUE_BACKEND"),
		ClaimMinIdleTime:   v.GetDuration("RELEASE_QUEUE_CLAIM_MIN_IDLE"),
		MaxRetryCount:      v.GetInt("RELEASE_QUEUE_MAX_RETRY"),
		ReadGroupBlockTime: v.GetDuration("RELEASE_QUEUE_BLOCK"),
		BufferSize:         v.GetInt("RELEASE_QUEUE_BUFFER"),
	}
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

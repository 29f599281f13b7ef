package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go-gin-event-ticketing/internal/model"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Publisher 發佈票券生命週期事件。發佈失敗不影響已完成的狀態轉換
type Publisher interface {
	Publish(ctx context.Context, event model.TicketEvent) error
	Close()
}

type KafkaConfig struct {
	Brokers     []string
	Topic       string
	ClientID    string
	ServiceName string
}

// KafkaPublisher implements Publisher on a franz-go client.
type KafkaPublisher struct {
	client      *kgo.Client
	topic       string
	serviceName string
}

func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "ticket-events"
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "ticketing-api"
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &KafkaPublisher{
		client:      client,
		topic:       topic,
		serviceName: serviceName,
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event model.TicketEvent) error {
	record, err := NewRecord(p.topic, p.serviceName, event)
	if err != nil {
		return err
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", event.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}

// NewRecord 以 ticket code 為 key，同一張票的事件落在同一個 partition
func NewRecord(topic, source string, event model.TicketEvent) (*kgo.Record, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(event.TicketCode),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(uuid.NewString())},
			{Key: "source", Value: []byte(source)},
			{Key: "content_type", Value: []byte("application/json")},
		},
	}, nil
}

// NoopPublisher 未設定 KAFKA_BROKERS 時使用
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, model.TicketEvent) error { return nil }
func (NoopPublisher) Close()                                          {}

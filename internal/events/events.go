// Package events publishes chat exchanges for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
	"github.com/Mithun-VK/trading-chatbot/internal/logger"
)

// DefaultTopic receives one event per answered chat message.
const DefaultTopic = "chat.exchanges"

// ChatEvent describes one answered chat message.
type ChatEvent struct {
	ID         string             `json:"id"`
	UserID     string             `json:"userId"`
	Message    string             `json:"message"`
	Reply      string             `json:"reply"`
	Symbols    []string           `json:"symbols"`
	Source     models.ReplySource `json:"source"`
	QuoteCount int                `json:"quoteCount"`
	At         time.Time          `json:"at"`
}

// Publisher delivers chat events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, e ChatEvent) error
	Close() error
}

// Nop discards events; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, ChatEvent) error { return nil }
func (Nop) Close() error                             { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON keyed by user id, so one user's
// exchanges stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates a publisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            3,
		BatchTimeout:           50 * time.Millisecond,
		WriteBackoffMin:        100 * time.Millisecond,
		WriteBackoffMax:        time.Second,
	}
	logger.L().Info().Strs("brokers", brokers).Str("topic", topic).Msg("kafka publisher created")
	return &KafkaPublisher{writer: w, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e ChatEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal chat event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.UserID), Value: data}); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	logger.L().Debug().Str("topic", p.topic).Str("event_id", e.ID).Msg("chat event published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

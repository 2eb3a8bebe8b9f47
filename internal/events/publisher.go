package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// Publisher emits domain events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, topic string, event interface{}) error
	Close() error
}

// KafkaPublisher publishes events to Kafka via watermill.
type KafkaPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewKafkaPublisher connects a watermill Kafka publisher to the given brokers.
func NewKafkaPublisher(brokers []string, logger *slog.Logger) (*KafkaPublisher, error) {
	pub, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &KafkaPublisher{
		publisher: pub,
		logger:    logger,
	}, nil
}

// Publish marshals the event as JSON and sends it to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "Event published",
		"topic", topic,
		"message_id", msg.UUID)

	return nil
}

// Close shuts down the underlying publisher.
func (p *KafkaPublisher) Close() error {
	return p.publisher.Close()
}

// NoopPublisher discards events. Used when event publishing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, topic string, event interface{}) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }

// RecordingPublisher captures published events in memory for tests.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []RecordedEvent
}

// RecordedEvent is a single captured publication.
type RecordedEvent struct {
	Topic   string
	Payload []byte
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) Publish(ctx context.Context, topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, RecordedEvent{Topic: topic, Payload: payload})
	return nil
}

func (p *RecordingPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (p *RecordingPublisher) Events() []RecordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]RecordedEvent, len(p.events))
	copy(out, p.events)
	return out
}

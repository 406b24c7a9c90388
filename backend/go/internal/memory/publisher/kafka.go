package publisher

import (
	"Recall_1.0/backend/go/internal/models"
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// DefaultTopic receives memory events when no topic is configured.
const DefaultTopic = "memory_events"

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Kafka publishes JSON events keyed by owner, so one user's events stay ordered
// within a partition.
type Kafka struct {
	writer MessageWriter
	topic  string
}

// NewKafka creates a Kafka publisher writing to topic.
func NewKafka(writer MessageWriter, topic string) *Kafka {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Kafka{writer: writer, topic: topic}
}

func (k *Kafka) Publish(ctx context.Context, event models.MemoryEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal memory event: %w", err)
	}
	msg := kafka.Message{
		Topic: k.topic,
		Key:   []byte(event.Owner),
		Value: value,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(event.Kind)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish memory event: %w", err)
	}
	return nil
}

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bibbank/fraudscore/internal/domain/event"
)

type messagePublisher interface {
	Publish(ctx context.Context, topic string, messages ...Message) error
}

// EventPublisher implements port.EventPublisher on a Kafka topic. Events are
// keyed by aggregate ID, so the events of one account stay ordered.
type EventPublisher struct {
	producer messagePublisher
	logger   *slog.Logger
	topic    string
}

// NewEventPublisher creates a new Kafka event publisher.
func NewEventPublisher(producer *Producer, topic string, logger *slog.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, topic: topic, logger: logger}
}

// Publish sends domain events to Kafka.
func (p *EventPublisher) Publish(ctx context.Context, events ...event.DomainEvent) error {
	messages := make([]Message, 0, len(events))
	for _, evt := range events {
		eventType := evt.EventType()

		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", eventType, err)
		}

		p.logger.DebugContext(ctx, "publishing event",
			slog.String("event_type", eventType),
			slog.String("topic", p.topic),
			slog.Int("payload_size", len(payload)),
		)

		messages = append(messages, Message{
			Key:   []byte(evt.AggregateID()),
			Value: payload,
			Headers: map[string]string{
				"event_type":   eventType,
				"event_id":     evt.EventID().String(),
				"content_type": "application/json",
			},
		})
	}

	if len(messages) == 0 {
		return nil
	}
	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("failed to publish events to topic %s: %w", p.topic, err)
	}
	return nil
}

package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Message represents a Kafka message.
type Message struct {
	Headers map[string]string
	Key     []byte
	Value   []byte
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer publishes messages, keeping one writer per topic.
type Producer struct {
	writers   map[string]messageWriter
	newWriter func(topic string) messageWriter
	mu        sync.Mutex
}

// NewProducer creates a Producer. Messages with the same key go to the same
// partition.
func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker is required")
	}
	transport, err := cfg.transport()
	if err != nil {
		return nil, err
	}

	return &Producer{
		writers: make(map[string]messageWriter),
		newWriter: func(topic string) messageWriter {
			w := &kafkago.Writer{
				Addr:                   kafkago.TCP(cfg.Brokers...),
				Topic:                  topic,
				Balancer:               &kafkago.Hash{},
				BatchTimeout:           10 * time.Millisecond,
				RequiredAcks:           kafkago.RequireAll,
				AllowAutoTopicCreation: true,
			}
			if transport != nil {
				w.Transport = transport
			}
			return w
		},
	}, nil
}

// Publish sends messages to topic.
func (p *Producer) Publish(ctx context.Context, topic string, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}
	w := p.writer(topic)

	out := make([]kafkago.Message, 0, len(messages))
	for _, msg := range messages {
		km := kafkago.Message{Key: msg.Key, Value: msg.Value}
		for k, v := range msg.Headers {
			km.Headers = append(km.Headers, kafkago.Header{Key: k, Value: []byte(v)})
		}
		out = append(out, km)
	}

	if err := w.WriteMessages(ctx, out...); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", topic, err)
	}
	return nil
}

// Close closes all writers.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing writer for topic %s: %w", topic, err)
		}
	}
	p.writers = make(map[string]messageWriter)
	return firstErr
}

func (p *Producer) writer(topic string) messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := p.newWriter(topic)
	p.writers[topic] = w
	return w
}

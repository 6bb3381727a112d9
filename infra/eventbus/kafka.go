package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/obmenka/settlement/pkg/eventbus"
	"github.com/obmenka/settlement/pkg/events"
	"github.com/segmentio/kafka-go"
)

// Envelope is the wire form of a published event.
type Envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// KafkaEventBus publishes domain events to a kafka topic. It is
// publish-only: consumption happens in downstream services, so Register is
// a no-op here.
type KafkaEventBus struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewWithKafka creates a kafka-backed event bus.
// brokers is a comma-separated list, e.g. "localhost:9092,localhost:9093".
func NewWithKafka(brokers, topic string, logger *slog.Logger) (*KafkaEventBus, error) {
	parsed := parseBrokers(brokers)
	if len(parsed) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka event bus: topic is required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(parsed...),
		Topic:                  topic,
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
	}
	return &KafkaEventBus{
		writer: writer,
		logger: logger.With("bus", "kafka", "topic", topic),
	}, nil
}

// Register implements eventbus.Bus. Consumers live out of process; local
// registration is not supported.
func (b *KafkaEventBus) Register(eventType string, _ eventbus.HandlerFunc) {
	b.logger.Warn("ignoring local handler registration on kafka bus",
		"event", eventType)
}

// Emit publishes the event keyed by its type so per-type ordering is
// preserved.
func (b *KafkaEventBus) Emit(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type(), err)
	}
	value, err := json.Marshal(Envelope{
		Type:       event.Type(),
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Type()),
		Value: value,
	})
}

// Close flushes and closes the underlying writer.
func (b *KafkaEventBus) Close() error {
	return b.writer.Close()
}

func parseBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)

package alert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/schema"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of kafka.Writer the sink needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes alerts as JSON events keyed by device ID, so every
// alert of a device lands on the same partition.
type KafkaSink struct {
	writer  MessageWriter
	timeout time.Duration
	now     func() time.Time
}

var _ contract.AlertSink = &KafkaSink{} // Compile-time check

// DefaultPublishTimeout bounds a single publish.
const DefaultPublishTimeout = 5 * time.Second

// NewKafkaSink creates a sink writing to topic on the given brokers.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // Partition by key
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return NewKafkaSinkWithWriter(writer), nil
}

// NewKafkaSinkWithWriter wraps an existing writer.
func NewKafkaSinkWithWriter(w MessageWriter) *KafkaSink {
	return &KafkaSink{writer: w, timeout: DefaultPublishTimeout, now: time.Now}
}

// Name implements the AlertSink interface.
func (k *KafkaSink) Name() string { return "kafka" }

// Send implements the AlertSink interface.
func (k *KafkaSink) Send(ctx context.Context, deviceID string, verdict schema.RiskVerdict, message string) error {
	payload, err := json.Marshal(NewEvent(deviceID, verdict, message, k.now()))
	if err != nil {
		return fmt.Errorf("failed to serialize alert: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(deviceID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "level", Value: []byte(verdict.Level)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish alert for %s: %w", deviceID, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}

package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
)

// KafkaSink publishes window aggregates to a Kafka topic as JSON, keyed by
// lot so per-lot emission order survives partitioning.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink creates a sink writing to the given brokers and topic.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
			BatchTimeout: 100 * time.Millisecond,
		},
	}
}

// Name implements AggregateSink.
func (s *KafkaSink) Name() string { return "kafka" }

// Publish implements AggregateSink.
func (s *KafkaSink) Publish(ctx context.Context, a *domain.WindowAggregate) error {
	value, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal aggregate: %w", err)
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(a.Lot),
		Value: value,
		Time:  a.WindowEnd,
	})
	if err != nil {
		return fmt.Errorf("write aggregate to kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

var _ AggregateSink = (*KafkaSink)(nil)

// Package publish forwards produced KPI snapshots to external consumers.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/freightpulse/freightpulse/internal/metrics"
	ops "github.com/freightpulse/freightpulse/pkg/metrics"
)

// KafkaPublisher writes every snapshot to a Kafka topic so other teams can
// ingest the KPI feed. It implements stream.Sink; write failures are counted
// and reported but the tick loop keeps running.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher builds a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		logger: logger,
	}
}

// Publish serializes the snapshot and writes it keyed by its timestamp.
func (p *KafkaPublisher) Publish(ctx context.Context, snap metrics.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(snap.Timestamp.UTC().Format(time.RFC3339Nano)),
		Value: b,
		Time:  snap.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		ops.KafkaPublishErrors.Inc()
		p.logger.Warn("kafka write failed", zap.Error(err))
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

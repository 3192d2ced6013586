package producers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/starkbank-ledger/internal/config"
	"github.com/starkbank-ledger/internal/domain/shared"
)

var ErrDLQDisabled = errors.New("dead letter queue is not configured")

// Header keys set on every dead letter
const (
	HeaderDLQReason     = "dlq-reason"
	HeaderCorrelationID = "correlation-id"
)

// DeadLetter is the envelope written to the dead letter topic. Payload holds the rejected
// message verbatim so an operator can replay it once the cause is fixed.
type DeadLetter struct {
	Key           string    `json:"key"`
	Payload       string    `json:"payload"`
	Reason        string    `json:"reason"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	FailedAt      time.Time `json:"failed_at"`
}

// DLQProducer parks transaction requests that can never succeed. A nil *DLQProducer is valid
// and reports ErrDLQDisabled.
type DLQProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewDLQProducer returns a nil producer if cfg.DLQTopic is empty
func NewDLQProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*DLQProducer, error) {
	if cfg.DLQTopic == "" {
		logger.Info("No dead letter topic configured, rejected requests will only be logged")
		return nil, nil
	}

	if err := EnsureTopic(ctx, logger, cfg, cfg.DLQTopic); err != nil {
		return nil, fmt.Errorf("failed to ensure DLQ topic %s exists: %w", cfg.DLQTopic, err)
	}

	return &DLQProducer{
		logger: logger,
		topic:  cfg.DLQTopic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers),
			Topic:        cfg.DLQTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: cfg.MaxWait,
		},
	}, nil
}

// PublishToDLQ writes the rejected message and its failure reason synchronously.
// The correlation ID of ctx, if any, travels in both the envelope and a header.
func (p *DLQProducer) PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error {
	if p == nil || p.writer == nil {
		return ErrDLQDisabled
	}

	letter := DeadLetter{
		Key:           key,
		Payload:       string(originalMessageValue),
		Reason:        reason,
		CorrelationID: shared.CorrelationID(ctx),
		FailedAt:      time.Now().UTC(),
	}
	value, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	headers := []kafka.Header{{Key: HeaderDLQReason, Value: []byte(reason)}}
	if letter.CorrelationID != "" {
		headers = append(headers, kafka.Header{Key: HeaderCorrelationID, Value: []byte(letter.CorrelationID)})
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value, Headers: headers}); err != nil {
		p.logger.Error("Failed to publish dead letter", "topic", p.topic, "key", key, "error", err)
		return fmt.Errorf("failed to publish message to DLQ %s: %w", p.topic, err)
	}

	p.logger.Info("Published dead letter", "topic", p.topic, "key", key, "reason", reason)
	return nil
}

func (p *DLQProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	p.logger.Info("Closing DLQ producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close DLQ writer for topic %s: %w", p.topic, err)
	}
	return nil
}

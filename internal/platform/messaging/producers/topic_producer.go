package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/starkbank-ledger/internal/config"
)

// DeliveryMode controls how a TopicProducer hands messages to the brokers
type DeliveryMode int

const (
	// DeliveryAsync batches writes in the background; failures are only logged
	DeliveryAsync DeliveryMode = iota
	// DeliverySync blocks until every in-sync replica acknowledged the write
	DeliverySync
)

// TopicProducer publishes JSON messages to a single topic
type TopicProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewTopicProducer ensures the topic exists and builds a writer for it
func NewTopicProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig, topic string, mode DeliveryMode) (*TopicProducer, error) {
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is not configured")
	}

	if err := EnsureTopic(ctx, logger, cfg, topic); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // Same key, same partition: per-account ordering
		WriteTimeout: cfg.MaxWait,
	}

	switch mode {
	case DeliverySync:
		writer.RequiredAcks = kafka.RequireAll
	default:
		writer.RequiredAcks = kafka.RequireOne
		writer.Async = true
		writer.Completion = func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages asynchronously", "topic", topic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages asynchronously", "topic", topic, "count", len(messages))
			}
		}
	}

	return &TopicProducer{
		logger: logger,
		writer: writer,
		topic:  topic,
	}, nil
}

// Publish JSON-encodes value and writes it under key
func (p *TopicProducer) Publish(ctx context.Context, key string, value any) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for topic %s: %w", p.topic, err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published message",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *TopicProducer) Close() error {
	p.logger.Info("Closing Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}

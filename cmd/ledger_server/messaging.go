package main

import (
	"context"
	"log/slog"

	"github.com/starkbank-ledger/internal/config"
	"github.com/starkbank-ledger/internal/platform/messaging/producers"
)

// messaging holds the Kafka producers. Every publisher is an untyped nil when Kafka is disabled,
// so the components that receive them can detect it with a plain nil check.
type messaging struct {
	events   producers.MessagePublisher
	alerts   producers.MessagePublisher
	requests producers.MessagePublisher
	dlq      *producers.DLQProducer
	closers  []func() error
}

func openMessaging(ctx context.Context, log *slog.Logger, cfg *config.Config) (*messaging, error) {
	m := &messaging{}
	if !cfg.Kafka.Enabled {
		log.Info("Kafka is disabled, events and queued transactions are switched off")
		return m, nil
	}

	events, err := producers.NewTopicProducer(ctx, log, &cfg.Kafka, cfg.Kafka.EventsTopic, producers.DeliveryAsync)
	if err != nil {
		return nil, err
	}
	m.events = events
	m.closers = append(m.closers, events.Close)

	alerts, err := producers.NewTopicProducer(ctx, log, &cfg.Kafka, cfg.Kafka.AlertsTopic, producers.DeliverySync)
	if err != nil {
		m.close(log)
		return nil, err
	}
	m.alerts = alerts
	m.closers = append(m.closers, alerts.Close)

	requests, err := producers.NewTopicProducer(ctx, log, &cfg.Kafka, cfg.Kafka.TransactionTopic, producers.DeliverySync)
	if err != nil {
		m.close(log)
		return nil, err
	}
	m.requests = requests
	m.closers = append(m.closers, requests.Close)

	dlq, err := producers.NewDLQProducer(ctx, log, &cfg.Kafka)
	if err != nil {
		m.close(log)
		return nil, err
	}
	m.dlq = dlq
	m.closers = append(m.closers, dlq.Close)

	return m, nil
}

func (m *messaging) close(log *slog.Logger) {
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil {
			log.Error("Error closing Kafka producer", "error", err)
		}
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/starkbank-ledger/internal/api_gateway"
	apiservice "github.com/starkbank-ledger/internal/api_gateway/service"
	"github.com/starkbank-ledger/internal/config"
	"github.com/starkbank-ledger/internal/logger"
	"github.com/starkbank-ledger/internal/platform/messaging/consumers"
	"github.com/starkbank-ledger/internal/platform/metrics"
	"github.com/starkbank-ledger/internal/session"
	"github.com/starkbank-ledger/internal/transaction_processor/components"
	"github.com/starkbank-ledger/internal/transaction_processor/consumer"
	"github.com/starkbank-ledger/internal/transaction_processor/service"
	"github.com/urfave/cli/v2"
)

func serve(c *cli.Context) error {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(c.Context)
	defer cancelAppCtx()

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		// logger is not initialized yet
		return cli.Exit(fmt.Sprintf("failed to load configuration: %v", err), 1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting ledger server",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"version", Version,
		"storage_backend", cfg.Storage.Backend,
		"transfer_policy", cfg.Ledger.TransferPolicy,
	)

	var (
		serverMetrics *metrics.Metrics
		registerer    prometheus.Registerer
	)
	if cfg.Metrics.Enabled {
		serverMetrics = metrics.New()
		registerer = serverMetrics.Registry()
	}

	store, err := openStorage(appCtx, log, cfg, registerer)
	if err != nil {
		log.Error("Failed to initialize storage", "backend", cfg.Storage.Backend, "error", err)
		return cli.Exit("storage unavailable", 1)
	}

	bus, err := openMessaging(appCtx, log, cfg)
	if err != nil {
		log.Error("Failed to initialize Kafka producers", "error", err)
		store.close(context.Background())
		return cli.Exit("kafka unavailable", 1)
	}

	ledgerService := components.CreateLedgerService(store.accounts, store.history, bus.events, bus.alerts, log, cfg)
	if serverMetrics != nil {
		ledgerService = service.NewInstrumentedLedgerService(ledgerService, serverMetrics)
	}
	registry := session.NewRegistry(log, store.credentials, store.accounts, ledgerService,
		session.WithIdleTimeout(cfg.Server.SessionIdleTTL))

	// Queued transactions are only consumed when Kafka is on
	var (
		kafkaConsumer     *consumers.KafkaConsumer
		processingService service.ProcessingService
	)
	if cfg.Kafka.Enabled {
		processingService = components.CreateProcessingService(ledgerService, log, cfg)
		handler := consumer.NewTransactionEventHandler(
			log,
			processingService,
			components.NewFailureRecorder(bus.dlq, log),
			bus.dlq,
		)

		kafkaConsumer = consumers.NewKafkaConsumer(log, &cfg.Kafka)
		if err := kafkaConsumer.Subscribe(appCtx, handler.HandleMessage); err != nil {
			log.Error("Failed to subscribe to transaction requests", "error", err)
			bus.close(log)
			store.close(context.Background())
			return cli.Exit("kafka consumer unavailable", 1)
		}
	}

	server := api_gateway.NewServer(log, cfg, api_gateway.Services{
		Accounts:     apiservice.NewAccountService(log, store.accounts, store.credentials, store.history),
		Transactions: apiservice.NewTransactionService(log, store.accounts, store.history, bus.requests),
		Sessions:     registry,
		HealthChecks: store.healthChecks,
		Metrics:      serverMetrics,
	})

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- err
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case serviceErr = <-errChan:
		log.Error("Service error occurred", "error", serviceErr)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// HTTP first so no new work arrives, then the consumer, then the pool draining its last tasks
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping HTTP server", "error", err)
	}

	cancelAppCtx()

	if kafkaConsumer != nil {
		if err := kafkaConsumer.Close(); err != nil {
			log.Error("Error closing Kafka consumer", "error", err)
		}
	}

	if wpService, ok := processingService.(*service.WorkerPoolProcessingService); ok {
		if err := wpService.Shutdown(cfg.Server.ShutdownTimeout); err != nil {
			log.Error("Error shutting down worker pool", "error", err)
		}
	}

	bus.close(log)
	store.close(shutdownCtx)

	log.Info("Open sessions discarded", "count", registry.Count())

	if serviceErr != nil {
		log.Error("Ledger server shutdown with errors", "error", serviceErr)
		return cli.Exit("ledger server stopped with errors", 1)
	}
	log.Info("Ledger server shutdown completed successfully")
	return nil
}

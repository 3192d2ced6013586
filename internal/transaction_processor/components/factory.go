package components

import (
	"log/slog"

	"github.com/starkbank-ledger/internal/config"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/domain/shared"
	"github.com/starkbank-ledger/internal/platform/messaging/producers"
	"github.com/starkbank-ledger/internal/transaction_processor/service"
)

// CreateLedgerService wires the ledger engine. events and alerts may be nil when Kafka is disabled.
func CreateLedgerService(
	accountRepo account.Repository,
	ledgerRepo ledger.Repository,
	events producers.MessagePublisher,
	alerts producers.MessagePublisher,
	logger *slog.Logger,
	cfg *config.Config,
) service.LedgerService {
	engineLogger := logger.With("component", "ledger_engine")

	return service.NewLedgerService(
		service.NewAccountLocker(cfg.Ledger.LockTimeout),
		NewTransactionValidator(engineLogger),
		NewAccountManager(accountRepo, engineLogger),
		NewHistoryRecorder(ledgerRepo, engineLogger),
		NewEventNotifier(events, alerts, engineLogger),
		shared.TransferPolicy(cfg.Ledger.TransferPolicy),
		engineLogger,
	)
}

// CreateProcessingService creates a new ProcessingService for queued requests, running on a worker pool
// when one can be built.
func CreateProcessingService(
	ledgerService service.LedgerService,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProcessingService {
	baseService := service.NewProcessingService(ledgerService, NewTransactionValidator(logger), logger)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}

package service

import (
	"context"
	"log/slog"

	"github.com/starkbank-ledger/internal/domain/shared"
)

// ProcessingServiceImpl routes queued transaction requests to the ledger engine
type ProcessingServiceImpl struct {
	ledger    LedgerService
	validator TransactionValidator
	logger    *slog.Logger
}

func NewProcessingService(ledgerService LedgerService, validator TransactionValidator, logger *slog.Logger) ProcessingService {
	return &ProcessingServiceImpl{
		ledger:    ledgerService,
		validator: validator,
		logger:    logger,
	}
}

// ProcessTransaction validates the request and runs the matching ledger operation.
// Engine errors are returned unchanged so the caller can tell business failures from storage failures.
func (s *ProcessingServiceImpl) ProcessTransaction(ctx context.Context, request *shared.TransactionRequest) error {
	ctx = shared.WithCorrelationID(ctx, request.CorrelationID)
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Processing transaction",
		"transaction_id", request.TransactionID.String(),
		"account_id", request.AccountID,
		"type", request.Type,
	)

	if err := s.validator.Validate(request); err != nil {
		logger.Error("Transaction validation failed", "transaction_id", request.TransactionID.String(), "error", err)
		return err
	}

	var err error
	switch request.Type {
	case shared.TransactionTypeDeposit:
		_, err = s.ledger.Deposit(ctx, request.AccountID, request.Amount)
	case shared.TransactionTypeWithdrawal:
		_, err = s.ledger.Withdraw(ctx, request.AccountID, request.Amount)
	case shared.TransactionTypeTransfer:
		_, err = s.ledger.Transfer(ctx, request.AccountID, request.CounterpartyID, request.Amount)
	default:
		err = shared.ErrInvalidTransactionType
	}
	if err != nil {
		return err
	}

	logger.Info("Transaction processed", "transaction_id", request.TransactionID.String())
	return nil
}

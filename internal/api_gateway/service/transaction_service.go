package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/domain/shared"
	"github.com/starkbank-ledger/internal/platform/messaging/producers"
)

// ErrQueueDisabled is returned by SubmitTransaction when Kafka is switched off
var ErrQueueDisabled = errors.New("transaction queue is not enabled")

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	accountRepo account.Repository
	ledgerRepo  ledger.Repository
	producer    producers.MessagePublisher // nil when Kafka is disabled
	logger      *slog.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(logger *slog.Logger, accountRepo account.Repository, ledgerRepo ledger.Repository, producer producers.MessagePublisher) TransactionService {
	return &TransactionServiceImpl{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		producer:    producer,
		logger:      logger,
	}
}

// SubmitTransaction publishes the request keyed by account ID, so requests for one account
// are consumed in submission order.
func (s *TransactionServiceImpl) SubmitTransaction(ctx context.Context, transactionRequest *shared.TransactionRequest) (string, error) {
	if s.producer == nil {
		return "", ErrQueueDisabled
	}

	if err := s.producer.Publish(ctx, transactionRequest.AccountID, transactionRequest); err != nil {
		s.logger.Error("Failed to publish transaction request",
			"account_id", transactionRequest.AccountID,
			"transaction_type", string(transactionRequest.Type),
			"amount", transactionRequest.Amount.String(),
			"error", err,
		)
		return "", err
	}

	s.logger.Info("Transaction request published",
		"transaction_id", transactionRequest.TransactionID.String(),
		"account_id", transactionRequest.AccountID,
		"transaction_type", string(transactionRequest.Type),
		"amount", transactionRequest.Amount.String(),
	)

	return transactionRequest.TransactionID.String(), nil
}

// GetTransactionsByAccountID walks the account's log once, keeping only the requested page
func (s *TransactionServiceImpl) GetTransactionsByAccountID(ctx context.Context, accountID string, page, perPage int) ([]*ledger.Entry, int, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	entries, total, err := ledger.Page(s.ledgerRepo.ReadAll(ctx, accountID), offset, perPage)
	if err != nil {
		s.logger.Error("Failed to read transaction history", "account_id", accountID, "error", err)
		return nil, 0, err
	}
	return entries, total, nil
}

package components

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/shared"
	"github.com/starkbank-ledger/internal/transaction_processor/service"
)

type TransactionValidatorImpl struct {
	logger *slog.Logger
}

func NewTransactionValidator(logger *slog.Logger) service.TransactionValidator {
	return &TransactionValidatorImpl{
		logger: logger,
	}
}

// ValidateAmount accepts non-negative amounts with at most two decimal places.
// Negative amounts are rejected rather than coerced to their absolute value.
func (v *TransactionValidatorImpl) ValidateAmount(amount decimal.Decimal) error {
	return account.ValidateAmount(amount)
}

// Validate checks transaction request validity
func (v *TransactionValidatorImpl) Validate(request *shared.TransactionRequest) error {
	logger := v.logger
	if request.CorrelationID != "" {
		logger = v.logger.With("correlation_id", request.CorrelationID)
	}

	switch request.Type {
	case shared.TransactionTypeDeposit, shared.TransactionTypeWithdrawal:
	case shared.TransactionTypeTransfer:
		if request.CounterpartyID == "" {
			logger.Error("Transfer without recipient", "req_id", request.TransactionID.String())
			return fmt.Errorf("%w: transfer requires counterparty_id", shared.ErrInvalidTransactionType)
		}
		if request.CounterpartyID == request.AccountID {
			return shared.ErrSameAccount
		}
	default:
		logger.Error("Unknown transaction type", "req_id", request.TransactionID.String(), "type", request.Type)
		return shared.ErrInvalidTransactionType
	}

	if request.AccountID == "" {
		return account.ErrAccountNotFound{AccountID: request.AccountID}
	}

	if err := v.ValidateAmount(request.Amount); err != nil {
		logger.Error("Invalid amount", "req_id", request.TransactionID.String(), "amount", request.Amount.String())
		return err
	}

	return nil
}

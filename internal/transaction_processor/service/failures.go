package service

import (
	"errors"

	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/shared"
)

// ClassifyFailure maps an engine error to its failure reason. retryable is true for storage
// failures, which leave no trace in the ledger and can be run again.
func ClassifyFailure(err error) (reason shared.FailureReason, retryable bool) {
	switch {
	case errors.Is(err, shared.ErrLedgerDiverged):
		return shared.FailureReasonUnknownError, false
	case errors.Is(err, shared.ErrPartialTransfer):
		return shared.FailureReasonPartialTransfer, false
	case errors.Is(err, shared.ErrTransferReversed):
		return shared.FailureReasonTransferReversed, false
	case errors.Is(err, account.ErrAccountNotFound{}):
		return shared.FailureReasonAccountNotFound, false
	case errors.Is(err, account.ErrInsufficientFunds):
		return shared.FailureReasonInsufficientFunds, false
	case errors.Is(err, account.ErrInvalidAmount):
		return shared.FailureReasonInvalidAmount, false
	case errors.Is(err, shared.ErrSameAccount):
		return shared.FailureReasonSameAccount, false
	case errors.Is(err, shared.ErrInvalidTransactionType):
		return shared.FailureReasonInvalidType, false
	case errors.Is(err, shared.ErrStorageFailure):
		return shared.FailureReasonUnknownError, true
	}
	return shared.FailureReasonUnknownError, false
}

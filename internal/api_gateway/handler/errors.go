package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/starkbank-ledger/internal/api_gateway/middleware"
	"github.com/starkbank-ledger/internal/api_gateway/service"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/credential"
	"github.com/starkbank-ledger/internal/domain/shared"
	"github.com/starkbank-ledger/internal/session"
)

var badRequestErrors = []error{
	shared.ErrMalformedAmount,
	shared.ErrSameAccount,
	shared.ErrInvalidTransactionType,
	account.ErrInvalidAmount,
	account.ErrEmptyOwnerName,
	account.ErrMalformedOwnerName,
	account.ErrInvalidAccountType,
	credential.ErrEmptyUsername,
	credential.ErrMalformedUsername,
	credential.ErrEmptyPassword,
}

// respondError maps a service or engine error onto an HTTP status and error code
func respondError(c *gin.Context, logger *slog.Logger, op string, err error) {
	var partial *shared.PartialTransferError
	switch {
	case errors.As(err, &partial):
		logger.Error("Transfer left partially applied",
			"operation", op,
			"transfer_id", partial.TransferID.String(),
			"from_account_id", partial.FromAccountID,
			"to_account_id", partial.ToAccountID,
			"amount", partial.Amount.String(),
			"correlation_id", middleware.GetCorrelationID(c),
			"error", err,
		)
		RespondBadGateway(c, "PARTIAL_TRANSFER", err.Error())
	case errors.Is(err, shared.ErrLedgerDiverged):
		logger.Error("Balance and history diverged", "operation", op, "correlation_id", middleware.GetCorrelationID(c), "error", err)
		RespondInternalError(c)
	case errors.Is(err, shared.ErrTransferReversed):
		logger.Warn("Transfer reversed", "operation", op, "error", err)
		RespondConflict(c, "TRANSFER_REVERSED", "Transfer could not be completed and was reversed")
	case errors.Is(err, account.ErrAccountNotFound{}):
		RespondNotFound(c, err.Error())
	case errors.Is(err, session.ErrSessionNotFound):
		RespondNotFound(c, "Session not found")
	case errors.Is(err, session.ErrInvalidCredentials):
		RespondUnauthorized(c, "Invalid username or password")
	case errors.Is(err, account.ErrInsufficientFunds):
		RespondConflict(c, "INSUFFICIENT_FUNDS", "Insufficient funds")
	case errors.Is(err, credential.ErrDuplicateUsername{}):
		RespondConflict(c, "DUPLICATE_USERNAME", "Username is already taken")
	case isBadRequest(err):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, service.ErrQueueDisabled):
		RespondServiceUnavailable(c, "Transaction queue is not enabled")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, shared.ErrStorageFailure):
		logger.Error("Backend unavailable", "operation", op, "error", err)
		RespondServiceUnavailable(c, "Please try again later")
	default:
		logger.Error("Operation failed", "operation", op, "error", err)
		RespondInternalError(c)
	}
}

func isBadRequest(err error) bool {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

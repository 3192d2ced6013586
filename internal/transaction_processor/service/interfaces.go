package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/domain/shared"
)

// LedgerService is the ledger engine. Every operation on an account runs under that
// account's exclusive lock, from the balance read to the history append.
type LedgerService interface {
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*ledger.Entry, error)
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*ledger.Entry, error)
	Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal) (*TransferResult, error)
}

// TransferResult holds both legs of a completed transfer
type TransferResult struct {
	TransferID uuid.UUID     `json:"transfer_id"`
	Incoming   *ledger.Entry `json:"incoming"` // TRANSFER_IN on the recipient
	Outgoing   *ledger.Entry `json:"outgoing"` // TRANSFER_OUT on the sender
}

// ProcessingService defines the interface for processing queued transaction requests.
type ProcessingService interface {
	ProcessTransaction(ctx context.Context, request *shared.TransactionRequest) error
}

// TransactionValidator validates amounts and requests before any account is locked
type TransactionValidator interface {
	ValidateAmount(amount decimal.Decimal) error
	Validate(request *shared.TransactionRequest) error
}

// AccountManager reads account records and writes balance changes back to the store
type AccountManager interface {
	Load(ctx context.Context, accountID string) (*account.Account, error)
	// Apply applies one leg to a copy of current and persists it. current is left untouched
	// so it can be handed to Restore.
	Apply(ctx context.Context, current *account.Account, txType shared.TransactionType, amount decimal.Decimal) (*account.Account, error)
	Restore(ctx context.Context, previous *account.Account) error
}

// HistoryRecorder appends committed entries to the transaction log
type HistoryRecorder interface {
	Record(ctx context.Context, entry *ledger.Entry) error
}

// EventNotifier announces committed entries and partial transfers. Implementations must not fail
// the operation that triggered them.
type EventNotifier interface {
	EntryCommitted(ctx context.Context, entry *ledger.Entry)
	PartialTransfer(ctx context.Context, failure *shared.PartialTransferError)
}

// FailureRecorder records requests that failed for a business reason and will not be retried
type FailureRecorder interface {
	RecordFailure(ctx context.Context, request *shared.TransactionRequest, reason shared.FailureReason, cause error) error
}

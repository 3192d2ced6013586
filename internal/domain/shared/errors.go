package shared

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrSameAccount            = errors.New("source and destination accounts are the same")

	// ErrStorageFailure is matched by every StorageError
	ErrStorageFailure = errors.New("storage failure")
	// ErrPartialTransfer is matched by every PartialTransferError
	ErrPartialTransfer = errors.New("partial transfer failure")
	// ErrTransferReversed reports a transfer whose credit leg was undone after the debit leg failed
	ErrTransferReversed = errors.New("transfer reversed after debit failure")
	// ErrLedgerDiverged reports that a balance write could not be undone after its history append failed
	ErrLedgerDiverged = errors.New("account balance and history diverged")
)

// StorageError reports that an account store or transaction log was unreachable or unwritable
type StorageError struct {
	Op        string
	AccountID string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s for account %s: %v", e.Op, e.AccountID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is implements the errors.Is interface so callers can match on ErrStorageFailure
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageFailure
}

// PartialTransferError reports a transfer whose recipient was credited but whose sender was not debited.
// It signals a money-conservation violation that requires operator attention.
type PartialTransferError struct {
	TransferID    uuid.UUID
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal

	// ReversalAttempted is set when a compensating reversal of the credit was tried and failed.
	// A reversal that succeeds is reported as ErrTransferReversed instead.
	ReversalAttempted bool
	Cause             error
}

func (e *PartialTransferError) Error() string {
	return fmt.Sprintf("partial transfer %s: account %s credited %s but account %s was not debited: %v",
		e.TransferID, e.ToAccountID, FormatAmount(e.Amount), e.FromAccountID, e.Cause)
}

func (e *PartialTransferError) Unwrap() error {
	return e.Cause
}

// Is implements the errors.Is interface so callers can match on ErrPartialTransfer
func (e *PartialTransferError) Is(target error) bool {
	return target == ErrPartialTransfer
}

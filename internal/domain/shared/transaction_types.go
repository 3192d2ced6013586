package shared

// TransactionType defines possible ledger operations and history entry kinds
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal  TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer    TransactionType = "TRANSFER"     // Request only, never stored in history
	TransactionTypeTransferIn  TransactionType = "TRANSFER_IN"  // Credit leg of a transfer
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT" // Debit leg of a transfer
)

// IsCredit reports whether the kind increases the balance of the account it is recorded on
func (t TransactionType) IsCredit() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeTransferIn
}

// IsEntryKind reports whether the kind may appear in an account's history
func (t TransactionType) IsEntryKind() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransferIn, TransactionTypeTransferOut:
		return true
	}
	return false
}

// TransferPolicy decides what the engine does when the debit leg of a transfer fails
// after the credit leg has already been committed.
type TransferPolicy string

const (
	// TransferPolicyReport leaves the recipient credited and reports a partial transfer.
	TransferPolicyReport TransferPolicy = "report"
	// TransferPolicyCompensate re-debits the recipient and reports the transfer as reversed.
	TransferPolicyCompensate TransferPolicy = "compensate"
)

// FailureReason defines request failure categories reported to the dead letter queue
type FailureReason string

const (
	FailureReasonAccountNotFound   FailureReason = "ACCOUNT_NOT_FOUND"
	FailureReasonInsufficientFunds FailureReason = "INSUFFICIENT_FUNDS"
	FailureReasonInvalidAmount     FailureReason = "INVALID_AMOUNT"
	FailureReasonSameAccount       FailureReason = "SAME_ACCOUNT"
	FailureReasonInvalidType       FailureReason = "INVALID_TRANSACTION_TYPE"
	FailureReasonTransferReversed  FailureReason = "TRANSFER_REVERSED"
	FailureReasonPartialTransfer   FailureReason = "PARTIAL_TRANSFER"
	FailureReasonUnknownError      FailureReason = "UNKNOWN_ERROR"
)

package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/starkbank-ledger/internal/domain/shared"
)

// Entry represents one immutable balance-affecting event in an account's history.
// Amount is always non-negative; Type carries the sign.
type Entry struct {
	TransactionID  uuid.UUID              `json:"transaction_id"`
	TransferID     uuid.UUID              `json:"transfer_id"` // Shared by both legs of a transfer
	AccountID      string                 `json:"account_id"`
	Type           shared.TransactionType `json:"type"`
	Amount         decimal.Decimal        `json:"amount"`
	CounterpartyID string                 `json:"counterparty_id,omitempty"`
	BalanceAfter   decimal.Decimal        `json:"balance_after"`
	CorrelationID  string                 `json:"correlation_id,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// NewEntry builds an entry stamped with a fresh transaction ID and the current time
func NewEntry(accountID string, txType shared.TransactionType, amount, balanceAfter decimal.Decimal) *Entry {
	return &Entry{
		TransactionID: uuid.New(),
		AccountID:     accountID,
		Type:          txType,
		Amount:        amount,
		BalanceAfter:  balanceAfter,
		CreatedAt:     time.Now().UTC(),
	}
}

// SignedAmount returns the amount with the sign the entry applies to the balance
func (e *Entry) SignedAmount() decimal.Decimal {
	if e.Type.IsCredit() {
		return e.Amount
	}
	return e.Amount.Neg()
}

// Description renders the human-readable event text used in statements
func (e *Entry) Description() string {
	amount := "$" + shared.FormatAmount(e.Amount)
	switch e.Type {
	case shared.TransactionTypeDeposit:
		return "Deposit " + amount
	case shared.TransactionTypeWithdrawal:
		return "Withdraw " + amount
	case shared.TransactionTypeTransferIn:
		return fmt.Sprintf("Transfer Received %s from Account #%s", amount, e.CounterpartyID)
	case shared.TransactionTypeTransferOut:
		return fmt.Sprintf("Transfer Initiated %s to Account #%s", amount, e.CounterpartyID)
	}
	return string(e.Type) + " " + amount
}

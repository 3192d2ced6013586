package shared

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionRequest defines a ledger operation request, used both in-process and as a Kafka message
type TransactionRequest struct {
	TransactionID  uuid.UUID       `json:"transaction_id"`
	AccountID      string          `json:"account_id"`
	CounterpartyID string          `json:"counterparty_id,omitempty"` // Recipient for TRANSFER requests
	Type           TransactionType `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

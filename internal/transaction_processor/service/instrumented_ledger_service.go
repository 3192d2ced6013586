package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/starkbank-ledger/internal/domain/ledger"
)

// OperationObserver receives the outcome and latency of every ledger operation
type OperationObserver interface {
	ObserveOperation(operation, outcome string, elapsed time.Duration)
}

// InstrumentedLedgerService reports each call of the wrapped service to an OperationObserver
type InstrumentedLedgerService struct {
	next     LedgerService
	observer OperationObserver
}

func NewInstrumentedLedgerService(next LedgerService, observer OperationObserver) *InstrumentedLedgerService {
	return &InstrumentedLedgerService{next: next, observer: observer}
}

func (s *InstrumentedLedgerService) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*ledger.Entry, error) {
	start := time.Now()
	entry, err := s.next.Deposit(ctx, accountID, amount)
	s.observer.ObserveOperation("deposit", Outcome(err), time.Since(start))
	return entry, err
}

func (s *InstrumentedLedgerService) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*ledger.Entry, error) {
	start := time.Now()
	entry, err := s.next.Withdraw(ctx, accountID, amount)
	s.observer.ObserveOperation("withdraw", Outcome(err), time.Since(start))
	return entry, err
}

func (s *InstrumentedLedgerService) Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal) (*TransferResult, error) {
	start := time.Now()
	result, err := s.next.Transfer(ctx, fromAccountID, toAccountID, amount)
	s.observer.ObserveOperation("transfer", Outcome(err), time.Since(start))
	return result, err
}

// Outcome turns an engine error into a low-cardinality label, "success" for nil
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "lock_timeout"
	}
	reason, retryable := ClassifyFailure(err)
	if retryable {
		return "storage_failure"
	}
	return strings.ToLower(string(reason))
}

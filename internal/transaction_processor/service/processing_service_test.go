package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*ledger.Entry, error) {
	args := m.Called(ctx, accountID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerService) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*ledger.Entry, error) {
	args := m.Called(ctx, accountID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerService) Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal) (*TransferResult, error) {
	args := m.Called(ctx, fromAccountID, toAccountID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TransferResult), args.Error(1)
}

type MockTransactionValidator struct {
	mock.Mock
}

func (m *MockTransactionValidator) ValidateAmount(amount decimal.Decimal) error {
	return m.Called(amount).Error(0)
}

func (m *MockTransactionValidator) Validate(request *shared.TransactionRequest) error {
	return m.Called(request).Error(0)
}

func TestProcessingService_ProcessTransaction(t *testing.T) {
	amount := decimal.NewFromInt(100)
	withCorrelation := mock.MatchedBy(func(ctx context.Context) bool {
		return shared.CorrelationID(ctx) == "corr-1"
	})

	newRequest := func(txType shared.TransactionType) *shared.TransactionRequest {
		return &shared.TransactionRequest{
			TransactionID:  uuid.New(),
			AccountID:      "1000000001",
			CounterpartyID: "1000000002",
			Type:           txType,
			Amount:         amount,
			CorrelationID:  "corr-1",
		}
	}

	tests := []struct {
		name          string
		request       *shared.TransactionRequest
		setupMocks    func(l *MockLedgerService, v *MockTransactionValidator)
		expectedError error
	}{
		{
			name:    "deposit",
			request: newRequest(shared.TransactionTypeDeposit),
			setupMocks: func(l *MockLedgerService, v *MockTransactionValidator) {
				v.On("Validate", mock.Anything).Return(nil)
				l.On("Deposit", withCorrelation, "1000000001", amount).Return(&ledger.Entry{}, nil).Once()
			},
		},
		{
			name:    "withdrawal rejected by engine",
			request: newRequest(shared.TransactionTypeWithdrawal),
			setupMocks: func(l *MockLedgerService, v *MockTransactionValidator) {
				v.On("Validate", mock.Anything).Return(nil)
				l.On("Withdraw", withCorrelation, "1000000001", amount).Return(nil, account.ErrInsufficientFunds).Once()
			},
			expectedError: account.ErrInsufficientFunds,
		},
		{
			name:    "transfer",
			request: newRequest(shared.TransactionTypeTransfer),
			setupMocks: func(l *MockLedgerService, v *MockTransactionValidator) {
				v.On("Validate", mock.Anything).Return(nil)
				l.On("Transfer", withCorrelation, "1000000001", "1000000002", amount).Return(&TransferResult{}, nil).Once()
			},
		},
		{
			name:    "invalid request never reaches engine",
			request: newRequest(shared.TransactionTypeTransferIn),
			setupMocks: func(l *MockLedgerService, v *MockTransactionValidator) {
				v.On("Validate", mock.Anything).Return(shared.ErrInvalidTransactionType)
			},
			expectedError: shared.ErrInvalidTransactionType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledgerService := &MockLedgerService{}
			validator := &MockTransactionValidator{}
			tt.setupMocks(ledgerService, validator)

			svc := NewProcessingService(ledgerService, validator, slog.Default())
			err := svc.ProcessTransaction(context.Background(), tt.request)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			ledgerService.AssertExpectations(t)
			validator.AssertExpectations(t)
		})
	}
}

func TestClassifyFailure(t *testing.T) {
	storage := &shared.StorageError{Op: "update", AccountID: "1", Err: errors.New("disk")}

	tests := []struct {
		name      string
		err       error
		reason    shared.FailureReason
		retryable bool
	}{
		{"not found", fmt.Errorf("load: %w", account.ErrAccountNotFound{AccountID: "1"}), shared.FailureReasonAccountNotFound, false},
		{"insufficient", account.ErrInsufficientFunds, shared.FailureReasonInsufficientFunds, false},
		{"invalid amount", account.ErrInvalidAmount, shared.FailureReasonInvalidAmount, false},
		{"same account", shared.ErrSameAccount, shared.FailureReasonSameAccount, false},
		{"invalid type", shared.ErrInvalidTransactionType, shared.FailureReasonInvalidType, false},
		{"storage", storage, shared.FailureReasonUnknownError, true},
		{"partial", &shared.PartialTransferError{Cause: storage}, shared.FailureReasonPartialTransfer, false},
		{"reversed", fmt.Errorf("%w: %w", shared.ErrTransferReversed, storage), shared.FailureReasonTransferReversed, false},
		{"diverged", errors.Join(storage, shared.ErrLedgerDiverged), shared.FailureReasonUnknownError, false},
		{"unknown", errors.New("boom"), shared.FailureReasonUnknownError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, retryable := ClassifyFailure(tt.err)
			assert.Equal(t, tt.reason, reason)
			assert.Equal(t, tt.retryable, retryable)
		})
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/domain/shared"
)

type LedgerServiceImpl struct {
	locker    *AccountLocker
	validator TransactionValidator
	accounts  AccountManager
	history   HistoryRecorder
	notifier  EventNotifier
	policy    shared.TransferPolicy
	logger    *slog.Logger
}

func NewLedgerService(
	locker *AccountLocker,
	validator TransactionValidator,
	accounts AccountManager,
	history HistoryRecorder,
	notifier EventNotifier,
	policy shared.TransferPolicy,
	logger *slog.Logger,
) LedgerService {
	if policy == "" {
		policy = shared.TransferPolicyReport
	}
	return &LedgerServiceImpl{
		locker:    locker,
		validator: validator,
		accounts:  accounts,
		history:   history,
		notifier:  notifier,
		policy:    policy,
		logger:    logger,
	}
}

// Deposit credits amount to the account and records a DEPOSIT entry
func (s *LedgerServiceImpl) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*ledger.Entry, error) {
	return s.single(ctx, accountID, shared.TransactionTypeDeposit, amount)
}

// Withdraw debits amount from the account and records a WITHDRAWAL entry.
// The balance check runs against the record read under the account lock.
func (s *LedgerServiceImpl) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*ledger.Entry, error) {
	return s.single(ctx, accountID, shared.TransactionTypeWithdrawal, amount)
}

func (s *LedgerServiceImpl) single(ctx context.Context, accountID string, txType shared.TransactionType, amount decimal.Decimal) (*ledger.Entry, error) {
	logger := s.requestLogger(ctx)

	if err := s.validator.ValidateAmount(amount); err != nil {
		logger.Warn("Rejected amount", "account_id", accountID, "type", txType, "amount", amount.String(), "error", err)
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, accountID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Past this point the operation runs to completion or reports a definite failure
	ctx = context.WithoutCancel(ctx)

	current, err := s.accounts.Load(ctx, accountID)
	if err != nil {
		return nil, err
	}

	entry, _, err := s.commit(ctx, current, txType, amount, "", uuid.Nil)
	if err != nil {
		return nil, err
	}

	logger.Info("Ledger operation committed",
		"transaction_id", entry.TransactionID.String(),
		"account_id", accountID,
		"type", txType,
		"amount", shared.FormatAmount(amount),
		"balance_after", shared.FormatAmount(entry.BalanceAfter),
	)
	return entry, nil
}

// Transfer credits the recipient, then debits the sender. Both accounts stay locked for the
// whole transfer. A debit failure after a committed credit is handled by the transfer policy.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal) (*TransferResult, error) {
	logger := s.requestLogger(ctx)

	if fromAccountID == toAccountID {
		return nil, shared.ErrSameAccount
	}
	if err := s.validator.ValidateAmount(amount); err != nil {
		logger.Warn("Rejected transfer amount", "from_account_id", fromAccountID, "amount", amount.String(), "error", err)
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, fromAccountID, toAccountID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ctx = context.WithoutCancel(ctx)

	sender, err := s.accounts.Load(ctx, fromAccountID)
	if err != nil {
		return nil, err
	}
	recipient, err := s.accounts.Load(ctx, toAccountID)
	if err != nil {
		return nil, err
	}
	if !sender.CanWithdraw(amount) {
		logger.Warn("Transfer rejected, insufficient funds",
			"from_account_id", fromAccountID,
			"balance", shared.FormatAmount(sender.Balance),
			"amount", shared.FormatAmount(amount),
		)
		return nil, account.ErrInsufficientFunds
	}

	transferID := uuid.New()

	incoming, credited, err := s.commit(ctx, recipient, shared.TransactionTypeTransferIn, amount, fromAccountID, transferID)
	if err != nil {
		logger.Error("Transfer credit leg failed", "transfer_id", transferID.String(), "to_account_id", toAccountID, "error", err)
		return nil, err
	}

	outgoing, _, err := s.commit(ctx, sender, shared.TransactionTypeTransferOut, amount, toAccountID, transferID)
	if err != nil {
		return nil, s.debitFailed(ctx, logger, transferID, fromAccountID, credited, amount, err)
	}

	logger.Info("Transfer committed",
		"transfer_id", transferID.String(),
		"from_account_id", fromAccountID,
		"to_account_id", toAccountID,
		"amount", shared.FormatAmount(amount),
	)

	return &TransferResult{
		TransferID: transferID,
		Incoming:   incoming,
		Outgoing:   outgoing,
	}, nil
}

// debitFailed applies the transfer policy once the recipient is credited and the sender is not
func (s *LedgerServiceImpl) debitFailed(
	ctx context.Context,
	logger *slog.Logger,
	transferID uuid.UUID,
	fromAccountID string,
	credited *account.Account,
	amount decimal.Decimal,
	cause error,
) error {
	partial := &shared.PartialTransferError{
		TransferID:    transferID,
		FromAccountID: fromAccountID,
		ToAccountID:   credited.ID,
		Amount:        amount,
		Cause:         cause,
	}

	if s.policy == shared.TransferPolicyCompensate {
		_, _, reverseErr := s.commit(ctx, credited, shared.TransactionTypeTransferOut, amount, fromAccountID, transferID)
		if reverseErr == nil {
			logger.Warn("Transfer reversed after debit leg failed",
				"transfer_id", transferID.String(),
				"from_account_id", fromAccountID,
				"to_account_id", credited.ID,
				"error", cause,
			)
			return fmt.Errorf("transfer %s: %w: %w", transferID, shared.ErrTransferReversed, cause)
		}
		partial.ReversalAttempted = true
		partial.Cause = errors.Join(cause, fmt.Errorf("reversal failed: %w", reverseErr))
	}

	logger.Error("Partial transfer, recipient credited but sender not debited",
		"transfer_id", transferID.String(),
		"from_account_id", fromAccountID,
		"to_account_id", credited.ID,
		"amount", shared.FormatAmount(amount),
		"policy", s.policy,
		"reversal_attempted", partial.ReversalAttempted,
		"error", partial.Cause,
	)
	s.notifier.PartialTransfer(ctx, partial)
	return partial
}

// commit writes one leg: store update first, then the history append. A failed append
// restores the previous record so the store never runs ahead of the log.
func (s *LedgerServiceImpl) commit(
	ctx context.Context,
	current *account.Account,
	txType shared.TransactionType,
	amount decimal.Decimal,
	counterpartyID string,
	transferID uuid.UUID,
) (*ledger.Entry, *account.Account, error) {
	updated, err := s.accounts.Apply(ctx, current, txType, amount)
	if err != nil {
		return nil, nil, err
	}

	entry := ledger.NewEntry(updated.ID, txType, amount, updated.Balance)
	entry.CounterpartyID = counterpartyID
	entry.TransferID = transferID
	entry.CorrelationID = shared.CorrelationID(ctx)

	if err := s.history.Record(ctx, entry); err != nil {
		if restoreErr := s.accounts.Restore(ctx, current); restoreErr != nil {
			s.requestLogger(ctx).Error("Failed to restore account after history append failure",
				"account_id", current.ID,
				"transaction_id", entry.TransactionID.String(),
				"append_error", err,
				"restore_error", restoreErr,
			)
			return nil, nil, errors.Join(err, restoreErr, shared.ErrLedgerDiverged)
		}
		return nil, nil, err
	}

	s.notifier.EntryCommitted(ctx, entry)
	return entry, updated, nil
}

func (s *LedgerServiceImpl) requestLogger(ctx context.Context) *slog.Logger {
	if id := shared.CorrelationID(ctx); id != "" {
		return s.logger.With("correlation_id", id)
	}
	return s.logger
}

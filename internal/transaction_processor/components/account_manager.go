package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/shared"
	"github.com/starkbank-ledger/internal/transaction_processor/service"
)

// AccountManagerImpl implements the AccountManager interface
type AccountManagerImpl struct {
	accountRepo account.Repository
	logger      *slog.Logger
}

// NewAccountManager creates a new AccountManagerImpl
func NewAccountManager(accountRepo account.Repository, logger *slog.Logger) service.AccountManager {
	return &AccountManagerImpl{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// Load reads the authoritative account record
func (m *AccountManagerImpl) Load(ctx context.Context, accountID string) (*account.Account, error) {
	acc, err := m.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			m.logger.Warn("Account not found", "acc_id", accountID)
		} else {
			m.logger.Error("Failed to read account", "acc_id", accountID, "error", err)
		}
		return nil, err
	}
	return acc, nil
}

// Apply validates the leg against the current balance and persists the new record as a full replace
func (m *AccountManagerImpl) Apply(ctx context.Context, current *account.Account, txType shared.TransactionType, amount decimal.Decimal) (*account.Account, error) {
	updated := current.Clone()

	var err error
	if txType.IsCredit() {
		err = updated.Deposit(amount)
	} else {
		err = updated.Withdraw(amount)
	}
	if err != nil {
		m.logger.Warn("Failed to apply transaction to account model",
			"acc_id", current.ID,
			"type", txType,
			"bal", shared.FormatAmount(current.Balance),
			"amt", amount.String(),
			"error", err,
		)
		return nil, err
	}

	if err := m.accountRepo.Update(ctx, updated); err != nil {
		m.logger.Error("Failed to update account", "acc_id", current.ID, "error", err)
		return nil, err
	}
	m.logger.Debug("Account updated", "acc_id", current.ID, "new_bal", shared.FormatAmount(updated.Balance))

	return updated, nil
}

// Restore writes back a record captured before a failed operation
func (m *AccountManagerImpl) Restore(ctx context.Context, previous *account.Account) error {
	if err := m.accountRepo.Update(ctx, previous); err != nil {
		return err
	}
	m.logger.Warn("Account restored to previous balance", "acc_id", previous.ID, "bal", shared.FormatAmount(previous.Balance))
	return nil
}

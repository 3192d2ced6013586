// Package session holds the per-login view of a customer's account. The cached balance is a
// mirror for display; the account store stays authoritative.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/domain/shared"
	"github.com/starkbank-ledger/internal/transaction_processor/service"
)

// View is a point-in-time copy of a customer's cached state
type View struct {
	AccountID   string          `json:"account_id"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	AccountType account.Type    `json:"account_type"`
	Balance     decimal.Decimal `json:"balance"`
	SyncedAt    time.Time       `json:"synced_at"`
}

// Customer is a logged-in account holder. Operations go through the ledger engine and
// the cached balance changes only when the engine reports success.
type Customer struct {
	ledger   service.LedgerService
	accounts account.Repository

	opMu sync.Mutex // Serializes this handle's operations so the mirror follows completion order

	mu   sync.RWMutex
	view View
}

func NewCustomer(acc *account.Account, ledgerService service.LedgerService, accounts account.Repository) *Customer {
	return &Customer{
		ledger:   ledgerService,
		accounts: accounts,
		view: View{
			AccountID:   acc.ID,
			FirstName:   acc.FirstName,
			LastName:    acc.LastName,
			AccountType: acc.Type,
			Balance:     acc.Balance,
			SyncedAt:    time.Now().UTC(),
		},
	}
}

func (c *Customer) AccountID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view.AccountID
}

// View returns a copy of the cached state
func (c *Customer) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// Balance returns the cached balance, which may lag behind credits made by other sessions
func (c *Customer) Balance() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view.Balance
}

func (c *Customer) Deposit(ctx context.Context, amount decimal.Decimal) (*ledger.Entry, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	entry, err := c.ledger.Deposit(ctx, c.AccountID(), amount)
	if err != nil {
		return nil, err
	}
	c.setBalance(entry.BalanceAfter)
	return entry, nil
}

func (c *Customer) Withdraw(ctx context.Context, amount decimal.Decimal) (*ledger.Entry, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	entry, err := c.ledger.Withdraw(ctx, c.AccountID(), amount)
	if err != nil {
		return nil, err
	}
	c.setBalance(entry.BalanceAfter)
	return entry, nil
}

// Transfer sends amount to another account. On a partial or reversed transfer the sender
// was not debited, so the mirror is left as is.
func (c *Customer) Transfer(ctx context.Context, toAccountID string, amount decimal.Decimal) (*service.TransferResult, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	result, err := c.ledger.Transfer(ctx, c.AccountID(), toAccountID, amount)
	if err != nil {
		return nil, err
	}
	c.setBalance(result.Outgoing.BalanceAfter)
	return result, nil
}

// Refresh reloads name, type and balance from the account store
func (c *Customer) Refresh(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	acc, err := c.accounts.GetByID(ctx, c.AccountID())
	if err != nil {
		return fmt.Errorf("failed to refresh account %s: %w", c.AccountID(), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.FirstName = acc.FirstName
	c.view.LastName = acc.LastName
	c.view.AccountType = acc.Type
	c.view.Balance = acc.Balance
	c.view.SyncedAt = time.Now().UTC()
	return nil
}

// Details renders the greeting block shown after login
func (c *Customer) Details() string {
	v := c.View()
	return fmt.Sprintf("\tHello %s!\n\tAccount Number: %s\n\tAccount Type: %s\n\tAccount Balance: $%s",
		v.FirstName, v.AccountID, v.AccountType, shared.FormatAmount(v.Balance))
}

func (c *Customer) setBalance(balance decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Balance = balance
	c.view.SyncedAt = time.Now().UTC()
}

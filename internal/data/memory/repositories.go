// Package memory provides in-process implementations of the account store, the
// transaction log and the credential index. State is lost when the process exits.
package memory

import (
	"context"
	"iter"
	"sync"

	"github.com/google/uuid"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/credential"
	"github.com/starkbank-ledger/internal/domain/ledger"
)

// AccountRepository implements account.Repository with a guarded map.
// Records are copied on the way in and out so callers never share state with the store.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*account.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]*account.Account)}
}

func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[acc.ID]; ok {
		return account.ErrDuplicateAccountID{AccountID: acc.ID}
	}
	r.accounts[acc.ID] = acc.Clone()
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	return acc.Clone(), nil
}

func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[acc.ID]; !ok {
		return account.ErrAccountNotFound{AccountID: acc.ID}
	}
	r.accounts[acc.ID] = acc.Clone()
	return nil
}

// LedgerRepository implements ledger.Repository with per-account slices.
// Transaction IDs are unique across all accounts.
type LedgerRepository struct {
	mu      sync.RWMutex
	entries map[string][]ledger.Entry
	ids     map[uuid.UUID]struct{}
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		entries: make(map[string][]ledger.Entry),
		ids:     make(map[uuid.UUID]struct{}),
	}
}

func (r *LedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[entry.TransactionID]; ok {
		return ledger.ErrDuplicateEntry{TransactionID: entry.TransactionID}
	}
	r.ids[entry.TransactionID] = struct{}{}
	r.entries[entry.AccountID] = append(r.entries[entry.AccountID], *entry)
	return nil
}

// ReadAll yields a snapshot of the entries present when iteration starts
func (r *LedgerRepository) ReadAll(ctx context.Context, accountID string) iter.Seq2[*ledger.Entry, error] {
	return func(yield func(*ledger.Entry, error) bool) {
		r.mu.RLock()
		snapshot := r.entries[accountID]
		r.mu.RUnlock()

		for i := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			e := snapshot[i]
			if !yield(&e, nil) {
				return
			}
		}
	}
}

// CredentialRepository implements credential.Repository with a guarded map
type CredentialRepository struct {
	mu    sync.RWMutex
	creds map[string]credential.Credential
}

func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{creds: make(map[string]credential.Credential)}
}

func (r *CredentialRepository) Add(ctx context.Context, cred *credential.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.creds[cred.Username]; ok {
		return credential.ErrDuplicateUsername{Username: cred.Username}
	}
	r.creds[cred.Username] = *cred
	return nil
}

func (r *CredentialRepository) GetByUsername(ctx context.Context, username string) (*credential.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	cred, ok := r.creds[username]
	if !ok {
		return nil, credential.ErrCredentialNotFound{Username: username}
	}
	return &cred, nil
}

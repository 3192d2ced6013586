package kv

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/dgraph-io/badger/v3"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/credential"
	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/domain/shared"
)

func accountKey(id string) []byte         { return []byte("account/" + id) }
func credentialKey(username string) []byte { return []byte("credential/" + username) }
func seqKey(accountID string) []byte       { return []byte("seq/" + accountID) }
func entryPrefix(accountID string) []byte  { return []byte("entry/" + accountID + "/") }

func entryKey(accountID string, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(entryPrefix(accountID), seq)
}

func storageErr(op, accountID string, err error) error {
	return &shared.StorageError{Op: op, AccountID: accountID, Err: err}
}

// AccountRepository implements account.Repository on the Badger store
type AccountRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewAccountRepository(logger *slog.Logger, store *Store) *AccountRepository {
	return &AccountRepository{store: store, logger: logger}
}

func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(acc)
	if err != nil {
		return fmt.Errorf("failed to encode account: %w", err)
	}

	err = r.store.update(func(txn *badger.Txn) error {
		_, err := txn.Get(accountKey(acc.ID))
		switch {
		case err == nil:
			return account.ErrDuplicateAccountID{AccountID: acc.ID}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(accountKey(acc.ID), value)
	})
	if err != nil {
		if errors.Is(err, account.ErrDuplicateAccountID{}) {
			return err
		}
		r.logger.Error("Failed to create account", "account_id", acc.ID, "error", err)
		return storageErr("create", acc.ID, err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var acc account.Account
	err := r.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &acc)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		return nil, storageErr("read", id, err)
	}
	return &acc, nil
}

// Update replaces the whole record in one transaction; readers see the old or the new record
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(acc)
	if err != nil {
		return fmt.Errorf("failed to encode account: %w", err)
	}

	err = r.store.update(func(txn *badger.Txn) error {
		if _, err := txn.Get(accountKey(acc.ID)); err != nil {
			return err
		}
		return txn.Set(accountKey(acc.ID), value)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return account.ErrAccountNotFound{AccountID: acc.ID}
		}
		r.logger.Error("Failed to update account", "account_id", acc.ID, "error", err)
		return storageErr("update", acc.ID, err)
	}
	return nil
}

// LedgerRepository implements ledger.Repository on the Badger store
type LedgerRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewLedgerRepository(logger *slog.Logger, store *Store) *LedgerRepository {
	return &LedgerRepository{store: store, logger: logger}
}

// Append writes the entry under the account's next sequence number. The sequence counter,
// the entry and its transaction ID index are committed together.
func (r *LedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode ledger entry: %w", err)
	}
	txKey := []byte("txid/" + entry.TransactionID.String())

	err = r.store.update(func(txn *badger.Txn) error {
		_, err := txn.Get(txKey)
		switch {
		case err == nil:
			return ledger.ErrDuplicateEntry{TransactionID: entry.TransactionID}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		seq, err := lastSeq(txn, entry.AccountID)
		if err != nil {
			return err
		}
		seq++

		key := entryKey(entry.AccountID, seq)
		if err := txn.Set(key, value); err != nil {
			return err
		}
		if err := txn.Set(txKey, key); err != nil {
			return err
		}
		return txn.Set(seqKey(entry.AccountID), binary.BigEndian.AppendUint64(nil, seq))
	})
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateEntry{}) {
			return err
		}
		r.logger.Error("Failed to append transaction",
			"account_id", entry.AccountID,
			"transaction_id", entry.TransactionID.String(),
			"error", err)
		return storageErr("append", entry.AccountID, err)
	}
	return nil
}

func lastSeq(txn *badger.Txn, accountID string) (uint64, error) {
	item, err := txn.Get(seqKey(accountID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var seq uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt sequence for account %s", accountID)
		}
		seq = binary.BigEndian.Uint64(val)
		return nil
	})
	return seq, err
}

// ReadAll iterates the account's entries in sequence order inside a read-only transaction,
// so one pass sees a consistent snapshot. Each pass opens a new transaction.
func (r *LedgerRepository) ReadAll(ctx context.Context, accountID string) iter.Seq2[*ledger.Entry, error] {
	return func(yield func(*ledger.Entry, error) bool) {
		stopped := false

		err := r.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = entryPrefix(accountID)
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}

				var entry ledger.Entry
				if err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &entry)
				}); err != nil {
					return storageErr("read log", accountID, err)
				}

				if !yield(&entry, nil) {
					stopped = true
					return nil
				}
			}
			return nil
		})

		if err != nil && !stopped {
			var storageFailure *shared.StorageError
			if !errors.As(err, &storageFailure) && ctx.Err() == nil {
				err = storageErr("read log", accountID, err)
			}
			yield(nil, err)
		}
	}
}

// credentialRecord is the stored form of a credential; the domain type hides the hash from JSON
type credentialRecord struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	AccountID    string `json:"account_id"`
}

// CredentialRepository implements credential.Repository on the Badger store
type CredentialRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewCredentialRepository(logger *slog.Logger, store *Store) *CredentialRepository {
	return &CredentialRepository{store: store, logger: logger}
}

func (r *CredentialRepository) Add(ctx context.Context, cred *credential.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(credentialRecord{
		Username:     cred.Username,
		PasswordHash: cred.PasswordHash,
		AccountID:    cred.AccountID,
	})
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	err = r.store.update(func(txn *badger.Txn) error {
		_, err := txn.Get(credentialKey(cred.Username))
		switch {
		case err == nil:
			return credential.ErrDuplicateUsername{Username: cred.Username}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(credentialKey(cred.Username), value)
	})
	if err != nil {
		if errors.Is(err, credential.ErrDuplicateUsername{}) {
			return err
		}
		r.logger.Error("Failed to add credential", "username", cred.Username, "error", err)
		return storageErr("add credential", cred.AccountID, err)
	}
	return nil
}

func (r *CredentialRepository) GetByUsername(ctx context.Context, username string) (*credential.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var record credentialRecord
	err := r.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(credentialKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, credential.ErrCredentialNotFound{Username: username}
		}
		return nil, storageErr("read credential", "", err)
	}

	return &credential.Credential{
		Username:     record.Username,
		PasswordHash: record.PasswordHash,
		AccountID:    record.AccountID,
	}, nil
}

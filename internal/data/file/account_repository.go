package file

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/shared"
)

// AccountRepository implements account.Repository on top of one
// "<id>_account_details.txt" file per account with the layout
//
//	First Last
//	<balance>
//	<account type>
type AccountRepository struct {
	dir    string
	logger *slog.Logger

	createMu sync.Mutex // Serializes the exists-check and first write in Create
}

// NewAccountRepository creates a file-backed account repository rooted at dir
func NewAccountRepository(logger *slog.Logger, dir string) account.Repository {
	return &AccountRepository{
		dir:    dir,
		logger: logger,
	}
}

// Create stores a new account record. Returns ErrDuplicateAccountID if the account number is taken.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validAccountID(acc.ID) {
		return account.ErrAccountNotFound{AccountID: acc.ID}
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()

	path := accountPath(r.dir, acc.ID)
	if _, err := os.Stat(path); err == nil {
		return account.ErrDuplicateAccountID{AccountID: acc.ID}
	} else if !errors.Is(err, fs.ErrNotExist) {
		r.logger.Error("Failed to check account file", "account_id", acc.ID, "error", err)
		return storageErr("create", acc.ID, err)
	}

	if err := writeFileAtomic(path, encodeAccount(acc)); err != nil {
		r.logger.Error("Failed to create account file", "account_id", acc.ID, "error", err)
		return storageErr("create", acc.ID, err)
	}

	return nil
}

// GetByID reads and parses an account record
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validAccountID(id) {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}

	data, err := os.ReadFile(accountPath(r.dir, id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to read account file", "account_id", id, "error", err)
		return nil, storageErr("read", id, err)
	}

	acc, err := decodeAccount(id, data)
	if err != nil {
		r.logger.Error("Corrupt account file", "account_id", id, "error", err)
		return nil, storageErr("read", id, err)
	}

	return acc, nil
}

// Update fully replaces an existing account record using write-to-temp-then-rename
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validAccountID(acc.ID) {
		return account.ErrAccountNotFound{AccountID: acc.ID}
	}

	path := accountPath(r.dir, acc.ID)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return account.ErrAccountNotFound{AccountID: acc.ID}
		}
		return storageErr("update", acc.ID, err)
	}

	if err := writeFileAtomic(path, encodeAccount(acc)); err != nil {
		r.logger.Error("Failed to replace account file", "account_id", acc.ID, "error", err)
		return storageErr("update", acc.ID, err)
	}

	return nil
}

func encodeAccount(acc *account.Account) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s\n", acc.FirstName, acc.LastName)
	fmt.Fprintf(&b, "%s\n", shared.FormatAmount(acc.Balance))
	fmt.Fprintf(&b, "%s\n", acc.Type)
	return b.Bytes()
}

func decodeAccount(id string, data []byte) (*account.Account, error) {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) < 3 {
		return nil, fmt.Errorf("expected 3 lines, found %d", len(lines))
	}

	first, last, ok := strings.Cut(lines[0], " ")
	if !ok {
		return nil, fmt.Errorf("malformed owner name %q", lines[0])
	}

	balance, err := shared.ParseAmount(lines[1])
	if err != nil {
		return nil, err
	}

	accountType, err := account.ParseType(lines[2])
	if err != nil {
		return nil, err
	}

	return &account.Account{
		ID:        id,
		FirstName: first,
		LastName:  last,
		Balance:   balance,
		Type:      accountType,
	}, nil
}

package kv

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/starkbank-ledger/internal/config"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/credential"
	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/domain/shared"
	"github.com/starkbank-ledger/internal/transaction_processor/components"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(discard, Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := store.Ping(context.Background()); err == nil {
			_ = store.Close()
		}
	})
	return store
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open(discard, Options{})
	assert.ErrorContains(t, err, "dir is required")
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(discard, Options{Dir: dir, SyncWrites: true, GCInterval: time.Hour})
	require.NoError(t, err)
	acc := &account.Account{ID: "1234567890", FirstName: "A", LastName: "B", Balance: decimal.RequireFromString("12.50"), Type: account.TypeChecking}
	require.NoError(t, NewAccountRepository(discard, store).Create(ctx, acc))
	require.NoError(t, store.Close())

	store, err = Open(discard, Options{Dir: dir})
	require.NoError(t, err)
	defer store.Close()

	got, err := NewAccountRepository(discard, store).GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(got.Balance))
	assert.Equal(t, account.TypeChecking, got.Type)
}

func TestAccountRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(discard, openTestStore(t))
	acc := &account.Account{ID: "1234567890", FirstName: "A", LastName: "B", Balance: decimal.NewFromInt(10), Type: account.TypeSaving}

	require.NoError(t, repo.Create(ctx, acc))
	assert.ErrorIs(t, repo.Create(ctx, acc), account.ErrDuplicateAccountID{})

	acc.Balance = decimal.RequireFromString("99.01")
	require.NoError(t, repo.Update(ctx, acc))
	got, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("99.01").Equal(got.Balance))
	assert.Equal(t, "A", got.FirstName)

	_, err = repo.GetByID(ctx, "0")
	assert.ErrorIs(t, err, account.ErrAccountNotFound{})
	assert.ErrorIs(t, repo.Update(ctx, &account.Account{ID: "0"}), account.ErrAccountNotFound{})
}

func TestLedgerRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewLedgerRepository(discard, openTestStore(t))

	var appended []*ledger.Entry
	for i := range 300 {
		e := ledger.NewEntry("A", shared.TransactionTypeDeposit, decimal.NewFromInt(int64(i)), decimal.Zero)
		require.NoError(t, repo.Append(ctx, e))
		appended = append(appended, e)
	}
	require.NoError(t, repo.Append(ctx, ledger.NewEntry("AB", shared.TransactionTypeDeposit, decimal.NewFromInt(1), decimal.NewFromInt(1))))
	assert.ErrorIs(t, repo.Append(ctx, appended[0]), ledger.ErrDuplicateEntry{})

	seq := repo.ReadAll(ctx, "A")
	entries, err := ledger.Collect(seq)
	require.NoError(t, err)
	require.Len(t, entries, 300, "entries of account AB must not leak into A")
	for i, e := range entries {
		assert.Equal(t, appended[i].TransactionID, e.TransactionID, "entry %d out of order", i)
	}

	again, err := ledger.Collect(seq)
	require.NoError(t, err)
	assert.Len(t, again, 300)

	empty, err := ledger.Collect(repo.ReadAll(ctx, "B"))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLedgerRepository_ReadAllStopsEarly(t *testing.T) {
	ctx := context.Background()
	repo := NewLedgerRepository(discard, openTestStore(t))
	for range 5 {
		require.NoError(t, repo.Append(ctx, ledger.NewEntry("A", shared.TransactionTypeDeposit, decimal.NewFromInt(1), decimal.Zero)))
	}

	page, total, err := ledger.Page(repo.ReadAll(ctx, "A"), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 2)

	seen := 0
	for _, err := range repo.ReadAll(ctx, "A") {
		require.NoError(t, err)
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestLedgerRepository_ReadAllErrors(t *testing.T) {
	store := openTestStore(t)
	repo := NewLedgerRepository(discard, store)
	require.NoError(t, repo.Append(context.Background(), ledger.NewEntry("A", shared.TransactionTypeDeposit, decimal.NewFromInt(1), decimal.Zero)))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ledger.Collect(repo.ReadAll(cancelled, "A"))
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, store.Close())
	_, err = ledger.Collect(repo.ReadAll(context.Background(), "A"))
	assert.ErrorIs(t, err, shared.ErrStorageFailure)
	assert.ErrorIs(t, store.Ping(context.Background()), ErrClosed)
}

func TestCredentialRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCredentialRepository(discard, openTestStore(t))

	cred, err := credential.NewCredential("ada", "engine", "1234567890")
	require.NoError(t, err)
	require.NoError(t, repo.Add(ctx, cred))
	assert.ErrorIs(t, repo.Add(ctx, &credential.Credential{Username: "ada"}), credential.ErrDuplicateUsername{})

	got, err := repo.GetByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, "1234567890", got.AccountID)
	assert.NoError(t, got.Verify("engine"), "password hash must survive the round trip")

	_, err = repo.GetByUsername(ctx, "alan")
	assert.ErrorIs(t, err, credential.ErrCredentialNotFound{})
}

func TestStore_RegisterMetrics(t *testing.T) {
	store := openTestStore(t)
	registry := prometheus.NewRegistry()

	require.NoError(t, store.RegisterMetrics(registry))
	assert.Error(t, store.RegisterMetrics(registry), "registering twice collides")

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{"ledger_badger_lsm_size_bytes", "ledger_badger_value_log_size_bytes"}, names)
}

func TestEngineOnBadger_BalancesReconcileWithHistory(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	accounts := NewAccountRepository(discard, store)
	history := NewLedgerRepository(discard, store)

	cfg := &config.Config{Ledger: config.LedgerConfig{TransferPolicy: config.TransferPolicyReport, LockTimeout: time.Second}}
	engine := components.CreateLedgerService(accounts, history, nil, nil, discard, cfg)

	for _, id := range []string{"1111111111", "2222222222"} {
		require.NoError(t, accounts.Create(ctx, &account.Account{ID: id, FirstName: "F", LastName: "L", Balance: decimal.Zero, Type: account.TypeChecking}))
	}

	_, err := engine.Deposit(ctx, "1111111111", decimal.RequireFromString("100.25"))
	require.NoError(t, err)
	_, err = engine.Transfer(ctx, "1111111111", "2222222222", decimal.RequireFromString("40.20"))
	require.NoError(t, err)
	_, err = engine.Withdraw(ctx, "2222222222", decimal.RequireFromString("0.20"))
	require.NoError(t, err)
	_, err = engine.Withdraw(ctx, "2222222222", decimal.NewFromInt(1000))
	assert.ErrorIs(t, err, account.ErrInsufficientFunds)

	for id, expected := range map[string]string{"1111111111": "60.05", "2222222222": "40.00"} {
		acc, err := accounts.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString(expected).Equal(acc.Balance), "balance of %s: %s", id, acc.Balance)

		entries, err := ledger.Collect(history.ReadAll(ctx, id))
		require.NoError(t, err)
		sum := decimal.Zero
		for _, e := range entries {
			sum = sum.Add(e.SignedAmount())
		}
		assert.True(t, acc.Balance.Equal(sum), "history of %s sums to %s", id, sum)
	}
}

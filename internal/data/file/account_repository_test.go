package file

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestAccount(id string, balance string) *account.Account {
	return &account.Account{
		ID:        id,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Balance:   decimal.RequireFromString(balance),
		Type:      account.TypeChecking,
	}
}

func TestAccountRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := NewAccountRepository(newTestLogger(), dir)

	acc := newTestAccount("1234567890", "100")
	require.NoError(t, repo.Create(ctx, acc))

	raw, err := os.ReadFile(filepath.Join(dir, "1234567890_account_details.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace\n100.00\nChecking\n", string(raw))

	got, err := repo.GetByID(ctx, "1234567890")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)
	assert.Equal(t, "Lovelace", got.LastName)
	assert.Equal(t, account.TypeChecking, got.Type)
	assert.True(t, decimal.NewFromInt(100).Equal(got.Balance))

	err = repo.Create(ctx, acc)
	assert.ErrorIs(t, err, account.ErrDuplicateAccountID{})
}

func TestAccountRepository_GetByID_NotFound(t *testing.T) {
	repo := NewAccountRepository(newTestLogger(), t.TempDir())

	_, err := repo.GetByID(context.Background(), "9999999999")
	assert.ErrorIs(t, err, account.ErrAccountNotFound{AccountID: "9999999999"})

	_, err = repo.GetByID(context.Background(), "../etc")
	assert.ErrorIs(t, err, account.ErrAccountNotFound{})
}

func TestAccountRepository_Update(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := NewAccountRepository(newTestLogger(), dir)

	acc := newTestAccount("1234567890", "100")
	require.NoError(t, repo.Create(ctx, acc))

	acc.Balance = decimal.RequireFromString("150.25")
	require.NoError(t, repo.Update(ctx, acc))

	got, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "150.25", got.Balance.StringFixed(2))

	// No temporary files are left behind after a replace
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestAccountRepository_Update_MissingAccount(t *testing.T) {
	repo := NewAccountRepository(newTestLogger(), t.TempDir())

	err := repo.Update(context.Background(), newTestAccount("1111111111", "5"))
	assert.ErrorIs(t, err, account.ErrAccountNotFound{})
}

func TestWriteFileAtomic_FailedRenameLeavesNoTrace(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "record.txt")

	// A non-empty directory at the target path makes the final rename fail
	require.NoError(t, os.MkdirAll(filepath.Join(target, "blocker"), 0o755))

	err := writeFileAtomic(target, []byte("new contents\n"))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "record.txt", entries[0].Name())
	assert.True(t, entries[0].IsDir())
}

func TestWriteFileAtomic_ReplacesWholeFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "record.txt")
	require.NoError(t, os.WriteFile(target, []byte("a much longer original body\nwith two lines\n"), 0o644))

	require.NoError(t, writeFileAtomic(target, []byte("short\n")))

	raw, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "short\n", string(raw))
}

func TestAccountRepository_CorruptRecord(t *testing.T) {
	dir := t.TempDir()
	repo := NewAccountRepository(newTestLogger(), dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3333333333_account_details.txt"), []byte("OnlyOneLine\n"), 0o644))

	_, err := repo.GetByID(context.Background(), "3333333333")
	require.Error(t, err)
	assert.NotErrorIs(t, err, account.ErrAccountNotFound{})
}

package ledger

import (
	"errors"
	"iter"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/starkbank-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_Description(t *testing.T) {
	testCases := []struct {
		name     string
		entry    Entry
		expected string
	}{
		{"Deposit", Entry{Type: shared.TransactionTypeDeposit, Amount: decimal.NewFromInt(50)}, "Deposit $50.00"},
		{"Withdraw", Entry{Type: shared.TransactionTypeWithdrawal, Amount: decimal.RequireFromString("30.5")}, "Withdraw $30.50"},
		{"TransferIn", Entry{Type: shared.TransactionTypeTransferIn, Amount: decimal.NewFromInt(20), CounterpartyID: "1111111111"}, "Transfer Received $20.00 from Account #1111111111"},
		{"TransferOut", Entry{Type: shared.TransactionTypeTransferOut, Amount: decimal.NewFromInt(20), CounterpartyID: "2222222222"}, "Transfer Initiated $20.00 to Account #2222222222"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.entry.Description())
		})
	}
}

func TestEntry_SignedAmount(t *testing.T) {
	in := NewEntry("A", shared.TransactionTypeTransferIn, decimal.NewFromInt(20), decimal.NewFromInt(20))
	out := NewEntry("A", shared.TransactionTypeTransferOut, decimal.NewFromInt(20), decimal.Zero)

	assert.True(t, decimal.NewFromInt(20).Equal(in.SignedAmount()))
	assert.True(t, decimal.NewFromInt(-20).Equal(out.SignedAmount()))
	assert.NotEqual(t, uuid.Nil, in.TransactionID)
	assert.NotEqual(t, in.TransactionID, out.TransactionID)
}

func seqOf(entries []*Entry, failAt int) iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		for i, e := range entries {
			if i == failAt {
				yield(nil, errors.New("read failure"))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func TestCollectAndPage(t *testing.T) {
	entries := make([]*Entry, 5)
	for i := range entries {
		entries[i] = NewEntry("A", shared.TransactionTypeDeposit, decimal.NewFromInt(int64(i)), decimal.Zero)
	}

	all, err := Collect(seqOf(entries, -1))
	require.NoError(t, err)
	assert.Len(t, all, 5)

	page, total, err := Page(seqOf(entries, -1), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, entries[2].TransactionID, page[0].TransactionID)

	_, err = Collect(seqOf(entries, 3))
	assert.Error(t, err)

	_, _, err = Page(seqOf(entries, 1), 0, 10)
	assert.Error(t, err)
}

package mongo

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/domain/shared"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func dec128(t testing.TB, s string) primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(s)
	require.NoError(t, err)
	return d
}

func TestDocumentConversion(t *testing.T) {
	entry := ledger.NewEntry("1111111111", shared.TransactionTypeTransferOut, decimal.RequireFromString("20"), decimal.RequireFromString("100.10"))
	entry.TransferID = uuid.New()
	entry.CounterpartyID = "2222222222"
	entry.CorrelationID = "corr-1"

	doc, err := toDocument(entry, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), doc.Seq)
	assert.Equal(t, "20.00", doc.Amount.String())
	assert.Equal(t, "100.10", doc.BalanceAfter.String())
	assert.Equal(t, entry.TransferID.String(), doc.TransferID)

	back, err := fromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, entry.TransactionID, back.TransactionID)
	assert.Equal(t, entry.TransferID, back.TransferID)
	assert.Equal(t, entry.Type, back.Type)
	assert.True(t, entry.Amount.Equal(back.Amount))
	assert.True(t, entry.BalanceAfter.Equal(back.BalanceAfter))
	assert.Equal(t, "2222222222", back.CounterpartyID)

	plain := ledger.NewEntry("1111111111", shared.TransactionTypeDeposit, decimal.NewFromInt(1), decimal.NewFromInt(1))
	doc, err = toDocument(plain, 1)
	require.NoError(t, err)
	assert.Empty(t, doc.TransferID)

	doc.TransactionID = "not-a-uuid"
	_, err = fromDocument(doc)
	assert.Error(t, err)
}

func TestLedgerRepository_Append(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	entry := ledger.NewEntry("1111111111", shared.TransactionTypeDeposit, decimal.NewFromInt(50), decimal.NewFromInt(150))

	counterResponse := mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
		{Key: "_id", Value: "1111111111"},
		{Key: "seq", Value: int64(1)},
	}})

	mt.Run("success", func(mt *mtest.T) {
		repo := NewLedgerRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(counterResponse, mtest.CreateSuccessResponse())

		err := repo.Append(context.Background(), entry)
		assert.NoError(mt, err)
	})

	mt.Run("duplicate transaction", func(mt *mtest.T) {
		repo := NewLedgerRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(counterResponse, mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Append(context.Background(), entry)
		assert.ErrorIs(mt, err, ledger.ErrDuplicateEntry{TransactionID: entry.TransactionID})
	})

	mt.Run("sequence failure", func(mt *mtest.T) {
		repo := NewLedgerRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    91,
			Message: "shutdown in progress",
			Name:    "ShutdownInProgress",
		}))

		err := repo.Append(context.Background(), entry)
		assert.ErrorIs(mt, err, shared.ErrStorageFailure)
	})
}

func TestLedgerRepository_ReadAll(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("streams entries in order", func(mt *mtest.T) {
		repo := NewLedgerRepository(newTestLogger(), mt.DB)
		ns := mt.DB.Name() + "." + LedgerCollectionName

		first := bson.D{
			{Key: "transaction_id", Value: uuid.NewString()},
			{Key: "account_id", Value: "1111111111"},
			{Key: "seq", Value: int64(1)},
			{Key: "type", Value: "DEPOSIT"},
			{Key: "amount", Value: dec128(mt, "50.00")},
			{Key: "balance_after", Value: dec128(mt, "150.00")},
			{Key: "created_at", Value: created},
		}
		second := bson.D{
			{Key: "transaction_id", Value: uuid.NewString()},
			{Key: "account_id", Value: "1111111111"},
			{Key: "seq", Value: int64(2)},
			{Key: "type", Value: "WITHDRAWAL"},
			{Key: "amount", Value: dec128(mt, "30.00")},
			{Key: "balance_after", Value: dec128(mt, "120.00")},
			{Key: "created_at", Value: created},
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, first, second))

		entries, err := ledger.Collect(repo.ReadAll(context.Background(), "1111111111"))
		require.NoError(mt, err)
		require.Len(mt, entries, 2)
		assert.Equal(mt, shared.TransactionTypeDeposit, entries[0].Type)
		assert.Equal(mt, "120.00", shared.FormatAmount(entries[1].BalanceAfter))
		assert.True(mt, created.Equal(entries[1].CreatedAt))
	})

	mt.Run("query failure", func(mt *mtest.T) {
		repo := NewLedgerRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad query", Name: "BadValue"}))

		_, err := ledger.Collect(repo.ReadAll(context.Background(), "1111111111"))
		assert.ErrorIs(mt, err, shared.ErrStorageFailure)
	})
}

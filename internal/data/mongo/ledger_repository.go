// Package mongo provides the MongoDB implementation of the append-only transaction log.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/domain/shared"
)

const (
	// LedgerCollectionName is the name of the ledger collection in MongoDB
	LedgerCollectionName = "ledger_entries"
	// CounterCollectionName holds one append sequence per account
	CounterCollectionName = "ledger_sequences"
)

// entryDocument is the stored shape of a ledger entry. Money is kept as Decimal128.
type entryDocument struct {
	TransactionID  string               `bson:"transaction_id"`
	TransferID     string               `bson:"transfer_id,omitempty"`
	AccountID      string               `bson:"account_id"`
	Seq            int64                `bson:"seq"`
	Type           string               `bson:"type"`
	Amount         primitive.Decimal128 `bson:"amount"`
	CounterpartyID string               `bson:"counterparty_id,omitempty"`
	BalanceAfter   primitive.Decimal128 `bson:"balance_after"`
	CorrelationID  string               `bson:"correlation_id,omitempty"`
	CreatedAt      time.Time            `bson:"created_at"`
}

// LedgerRepository implements the ledger.Repository interface for MongoDB
type LedgerRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewLedgerRepository creates a new MongoDB ledger repository
func NewLedgerRepository(logger *slog.Logger, db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the uniqueness and ordering indexes the log relies on
func (r *LedgerRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(LedgerCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "seq", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create ledger indexes: %w", err)
	}
	return nil
}

// Append reserves the next sequence number for the account and inserts the entry.
// Returns ErrDuplicateEntry if an entry with the same transaction ID exists.
func (r *LedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	seq, err := r.nextSeq(ctx, entry.AccountID)
	if err != nil {
		r.logger.Error("Failed to reserve ledger sequence",
			"account_id", entry.AccountID,
			"error", err)
		return &shared.StorageError{Op: "append", AccountID: entry.AccountID, Err: fmt.Errorf("failed to reserve ledger sequence: %w", err)}
	}

	doc, err := toDocument(entry, seq)
	if err != nil {
		return &shared.StorageError{Op: "append", AccountID: entry.AccountID, Err: err}
	}

	if _, err := r.db.Collection(LedgerCollectionName).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrDuplicateEntry{TransactionID: entry.TransactionID}
		}
		r.logger.Error("Failed to append ledger entry",
			"transaction_id", entry.TransactionID.String(),
			"error", err)
		return &shared.StorageError{Op: "append", AccountID: entry.AccountID, Err: fmt.Errorf("failed to append ledger entry: %w", err)}
	}

	return nil
}

// ReadAll streams the account's entries in sequence order through a server-side cursor.
// Each range over the returned sequence issues a fresh query.
func (r *LedgerRepository) ReadAll(ctx context.Context, accountID string) iter.Seq2[*ledger.Entry, error] {
	return func(yield func(*ledger.Entry, error) bool) {
		opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
		cursor, err := r.db.Collection(LedgerCollectionName).Find(ctx, bson.M{"account_id": accountID}, opts)
		if err != nil {
			r.logger.Error("Failed to query ledger entries", "account_id", accountID, "error", err)
			yield(nil, &shared.StorageError{Op: "read log", AccountID: accountID, Err: fmt.Errorf("failed to query ledger entries: %w", err)})
			return
		}
		defer cursor.Close(ctx)

		for cursor.Next(ctx) {
			var doc entryDocument
			if err := cursor.Decode(&doc); err != nil {
				yield(nil, &shared.StorageError{Op: "read log", AccountID: accountID, Err: fmt.Errorf("failed to decode ledger entry: %w", err)})
				return
			}
			entry, err := fromDocument(&doc)
			if err != nil {
				yield(nil, &shared.StorageError{Op: "read log", AccountID: accountID, Err: err})
				return
			}
			if !yield(entry, nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(nil, &shared.StorageError{Op: "read log", AccountID: accountID, Err: err})
		}
	}
}

func (r *LedgerRepository) nextSeq(ctx context.Context, accountID string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.db.Collection(CounterCollectionName).FindOneAndUpdate(ctx,
		bson.M{"_id": accountID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, fmt.Errorf("sequence upsert returned no document")
		}
		return 0, err
	}
	return counter.Seq, nil
}

func toDocument(e *ledger.Entry, seq int64) (*entryDocument, error) {
	amount, err := primitive.ParseDecimal128(shared.FormatAmount(e.Amount))
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	balance, err := primitive.ParseDecimal128(shared.FormatAmount(e.BalanceAfter))
	if err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}

	doc := &entryDocument{
		TransactionID:  e.TransactionID.String(),
		AccountID:      e.AccountID,
		Seq:            seq,
		Type:           string(e.Type),
		Amount:         amount,
		CounterpartyID: e.CounterpartyID,
		BalanceAfter:   balance,
		CorrelationID:  e.CorrelationID,
		CreatedAt:      e.CreatedAt,
	}
	if e.TransferID != uuid.Nil {
		doc.TransferID = e.TransferID.String()
	}
	return doc, nil
}

func fromDocument(doc *entryDocument) (*ledger.Entry, error) {
	txID, err := uuid.Parse(doc.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction id %q: %w", doc.TransactionID, err)
	}

	var transferID uuid.UUID
	if doc.TransferID != "" {
		if transferID, err = uuid.Parse(doc.TransferID); err != nil {
			return nil, fmt.Errorf("invalid transfer id %q: %w", doc.TransferID, err)
		}
	}

	amount, err := decimal.NewFromString(doc.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	balance, err := decimal.NewFromString(doc.BalanceAfter.String())
	if err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}

	return &ledger.Entry{
		TransactionID:  txID,
		TransferID:     transferID,
		AccountID:      doc.AccountID,
		Type:           shared.TransactionType(doc.Type),
		Amount:         amount,
		CounterpartyID: doc.CounterpartyID,
		BalanceAfter:   balance,
		CorrelationID:  doc.CorrelationID,
		CreatedAt:      doc.CreatedAt,
	}, nil
}

package ledger

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository is the append-only transaction log. There is no rewrite or delete path.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error

	// ReadAll yields an account's entries in append order. The sequence is lazy and may be
	// ranged over more than once; each pass re-reads the log from the beginning.
	ReadAll(ctx context.Context, accountID string) iter.Seq2[*Entry, error]
}

// Opener is implemented by logs that record an opening header when an account is created.
// The header is not a transaction and is never yielded by ReadAll.
type Opener interface {
	Open(ctx context.Context, accountID, accountType string, initialBalance decimal.Decimal, at time.Time) error
}

// Collect drains a ReadAll sequence into a slice, stopping at the first error
func Collect(seq iter.Seq2[*Entry, error]) ([]*Entry, error) {
	var entries []*Entry
	for e, err := range seq {
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Page skips offset entries and collects at most limit entries, plus the total number of entries
func Page(seq iter.Seq2[*Entry, error], offset, limit int) ([]*Entry, int, error) {
	entries := make([]*Entry, 0, limit)
	total := 0
	for e, err := range seq {
		if err != nil {
			return nil, 0, err
		}
		if total >= offset && len(entries) < limit {
			entries = append(entries, e)
		}
		total++
	}
	return entries, total, nil
}

// ErrDuplicateEntry indicates transaction uniqueness violation
type ErrDuplicateEntry struct {
	TransactionID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate ledger entry: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrDuplicateEntry
func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	// If the target TransactionID is empty, consider it a match for any ErrDuplicateEntry
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/domain/shared"
)

// LedgerRepository implements ledger.Repository on top of one append-only
// "<id>_transaction_details.txt" file per account. Each entry is one line:
//
//	(dd/mm/yyyy hh:mm:ss): <description> | New Balance: $<amount>
//
// The file format carries no transaction IDs; ReadAll derives a stable ID
// from the account and the line number. TransferID and CorrelationID are not
// stored either, so entries read back have them zeroed and the two legs of a
// transfer are tied together only by their counterparty account numbers.
type LedgerRepository struct {
	dir    string
	logger *slog.Logger
}

// NewLedgerRepository creates a file-backed transaction log rooted at dir
func NewLedgerRepository(logger *slog.Logger, dir string) *LedgerRepository {
	return &LedgerRepository{
		dir:    dir,
		logger: logger,
	}
}

// Open writes the opening header line of a new account's log
func (r *LedgerRepository) Open(ctx context.Context, accountID, accountType string, initialBalance decimal.Decimal, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line := fmt.Sprintf("%s Account (%s) Created on %s. Initial Balance: %s",
		accountType, accountID, formatTimestamp(at), shared.FormatAmount(initialBalance))

	if err := appendLine(transactionPath(r.dir, accountID), line); err != nil {
		r.logger.Error("Failed to write transaction log header", "account_id", accountID, "error", err)
		return storageErr("open log", accountID, err)
	}
	return nil
}

// Append writes one entry line at the end of the account's log
func (r *LedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validAccountID(entry.AccountID) {
		return storageErr("append", entry.AccountID, fmt.Errorf("invalid account id"))
	}

	if err := appendLine(transactionPath(r.dir, entry.AccountID), formatEntry(entry)); err != nil {
		r.logger.Error("Failed to append transaction",
			"account_id", entry.AccountID,
			"transaction_id", entry.TransactionID.String(),
			"error", err)
		return storageErr("append", entry.AccountID, err)
	}
	return nil
}

// ReadAll lazily scans the account's log. Header and blank lines are skipped.
// An account without a log file has an empty history.
func (r *LedgerRepository) ReadAll(ctx context.Context, accountID string) iter.Seq2[*ledger.Entry, error] {
	return func(yield func(*ledger.Entry, error) bool) {
		if !validAccountID(accountID) {
			return
		}

		f, err := os.Open(transactionPath(r.dir, accountID))
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				yield(nil, storageErr("read log", accountID, err))
			}
			return
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		lineNo := 0
		for sc.Scan() {
			lineNo++
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			line := sc.Text()
			isEntry := strings.HasPrefix(line, "(")
			var entry *ledger.Entry
			err := errHeaderLine
			if isEntry {
				entry, err = parseEntry(accountID, line)
			}
			if err != nil {
				// A torn write leaves a fragment that the next append continues on the same line
				recovered, ok := resyncEntry(accountID, line)
				if !ok {
					if isEntry {
						r.logger.Warn("Skipping malformed transaction line",
							"account_id", accountID, "line", lineNo, "error", err)
					}
					continue
				}
				r.logger.Warn("Recovered transaction line after a torn write",
					"account_id", accountID, "line", lineNo)
				entry = recovered
			}
			entry.TransactionID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(accountID+":"+strconv.Itoa(lineNo)))

			if !yield(entry, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(nil, storageErr("read log", accountID, err))
		}
	}
}

var errHeaderLine = errors.New("not a transaction line")

// resyncEntry finds a complete entry appended onto the fragment of an earlier torn write.
// The entry is the rightmost "(" from which the rest of the line parses.
func resyncEntry(accountID, line string) (*ledger.Entry, bool) {
	for i := strings.LastIndex(line, "("); i > 0; i = strings.LastIndex(line[:i], "(") {
		if entry, err := parseEntry(accountID, line[i:]); err == nil {
			return entry, true
		}
	}
	return nil, false
}

func formatEntry(e *ledger.Entry) string {
	return fmt.Sprintf("(%s): %s%s%s",
		formatTimestamp(e.CreatedAt), e.Description(), balanceSeparator, shared.FormatAmount(e.BalanceAfter))
}

func parseEntry(accountID, line string) (*ledger.Entry, error) {
	stamp, rest, ok := strings.Cut(strings.TrimPrefix(line, "("), "): ")
	if !ok {
		return nil, fmt.Errorf("missing timestamp")
	}
	createdAt, err := time.ParseInLocation(TimestampLayout, stamp, time.Local)
	if err != nil {
		return nil, err
	}

	desc, balanceText, ok := strings.Cut(rest, balanceSeparator)
	if !ok {
		return nil, fmt.Errorf("missing balance")
	}
	balance, err := shared.ParseAmount(balanceText)
	if err != nil {
		return nil, err
	}

	entry := &ledger.Entry{
		AccountID:    accountID,
		BalanceAfter: balance,
		CreatedAt:    createdAt,
	}
	if err := parseDescription(desc, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// parseDescription is the inverse of ledger.Entry.Description
func parseDescription(desc string, e *ledger.Entry) error {
	fields := strings.Fields(desc)
	var amountText string

	switch {
	case len(fields) == 2 && fields[0] == "Deposit":
		e.Type, amountText = shared.TransactionTypeDeposit, fields[1]
	case len(fields) == 2 && fields[0] == "Withdraw":
		e.Type, amountText = shared.TransactionTypeWithdrawal, fields[1]
	case len(fields) == 6 && fields[0] == "Transfer" && fields[1] == "Received":
		e.Type, amountText = shared.TransactionTypeTransferIn, fields[2]
		e.CounterpartyID = strings.TrimPrefix(fields[5], "#")
	case len(fields) == 6 && fields[0] == "Transfer" && fields[1] == "Initiated":
		e.Type, amountText = shared.TransactionTypeTransferOut, fields[2]
		e.CounterpartyID = strings.TrimPrefix(fields[5], "#")
	default:
		return fmt.Errorf("unrecognised description %q", desc)
	}

	amount, err := shared.ParseAmount(amountText)
	if err != nil {
		return err
	}
	e.Amount = amount
	return nil
}

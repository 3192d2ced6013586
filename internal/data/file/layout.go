// Package file provides filesystem implementations of the account store, the
// transaction log and the credential index. Every account owns two
// newline-delimited, human-readable files inside the data directory.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starkbank-ledger/internal/domain/shared"
)

const (
	accountFileSuffix     = "_account_details.txt"
	transactionFileSuffix = "_transaction_details.txt"
	credentialFileName    = "userLoginInfo.txt"

	// TimestampLayout is dd/mm/yyyy hh:mm:ss
	TimestampLayout = "02/01/2006 15:04:05"

	balanceSeparator = " | New Balance: $"
)

func accountPath(dir, accountID string) string {
	return filepath.Join(dir, accountID+accountFileSuffix)
}

func transactionPath(dir, accountID string) string {
	return filepath.Join(dir, accountID+transactionFileSuffix)
}

// validAccountID keeps IDs from escaping the data directory
func validAccountID(accountID string) bool {
	return accountID != "" && !strings.ContainsAny(accountID, `/\. `)
}

// writeFileAtomic writes data to a temporary file in the target directory and renames it
// over path, so readers observe either the complete old file or the complete new one.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// appendLine writes line plus a newline at the end of path. If the write or the sync fails,
// the file is cut back to its previous size so no fragment is left for the next line to join.
func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	if err := writeLine(f, info.Size(), line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type lineWriter interface {
	WriteString(s string) (int, error)
	Sync() error
	Truncate(size int64) error
}

func writeLine(w lineWriter, prevSize int64, line string) error {
	_, err := w.WriteString(line + "\n")
	if err == nil {
		err = w.Sync()
	}
	if err == nil {
		return nil
	}
	if truncErr := w.Truncate(prevSize); truncErr != nil {
		return errors.Join(err, fmt.Errorf("truncate to %d bytes: %w", prevSize, truncErr))
	}
	return err
}

func storageErr(op, accountID string, err error) error {
	return &shared.StorageError{Op: op, AccountID: accountID, Err: err}
}

func formatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// EnsureDir creates the data directory if it does not exist yet
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return nil
}

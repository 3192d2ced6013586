package account

import (
	"context"
)

// Repository defines account persistence operations.
// Update fully replaces the stored record; readers observe either the old or the new record, never a mixture.
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	Update(ctx context.Context, account *Account) error
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID string
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID
}

// Is implements the errors.Is interface for ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	// An empty target AccountID matches any ErrAccountNotFound
	if t.AccountID == "" {
		return true
	}
	return e.AccountID == t.AccountID
}

// ErrDuplicateAccountID indicates account number uniqueness violation
type ErrDuplicateAccountID struct {
	AccountID string
}

func (e ErrDuplicateAccountID) Error() string {
	return "account with this number already exists: " + e.AccountID
}

// Is implements the errors.Is interface for ErrDuplicateAccountID
func (e ErrDuplicateAccountID) Is(target error) bool {
	t, ok := target.(ErrDuplicateAccountID)
	if !ok {
		return false
	}
	if t.AccountID == "" {
		return true
	}
	return e.AccountID == t.AccountID
}

package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/domain/shared"
	"github.com/starkbank-ledger/internal/session"
)

// SignupInput carries everything needed to open an account and its login
type SignupInput struct {
	FirstName      string
	LastName       string
	Username       string
	Password       string
	InitialBalance decimal.Decimal
	AccountType    account.Type
}

// AccountService defines the interface for account operations
type AccountService interface {
	// Signup creates the account record, its opening history header and its credential.
	// Returns ErrDuplicateUsername if the username is taken.
	Signup(ctx context.Context, input SignupInput) (*account.Account, error)

	// GetAccountByID retrieves an account by its ID
	// Returns ErrAccountNotFound if the account doesn't exist
	GetAccountByID(ctx context.Context, id string) (*account.Account, error)
}

// TransactionService defines the interface for history reads and queued requests
type TransactionService interface {
	// SubmitTransaction queues a request for asynchronous processing and returns its transaction ID
	SubmitTransaction(ctx context.Context, transactionRequest *shared.TransactionRequest) (string, error)

	// GetTransactionsByAccountID returns one page of an account's history and the total entry count
	GetTransactionsByAccountID(ctx context.Context, accountID string, page, perPage int) ([]*ledger.Entry, int, error)
}

// SessionService opens and resolves customer sessions
type SessionService interface {
	Login(ctx context.Context, username, password string) (*session.Session, error)
	Get(id string) (*session.Session, error)
	Logout(id string) error
}

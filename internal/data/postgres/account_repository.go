// Package postgres provides PostgreSQL implementations of the account store and the
// credential index. Balances are stored as NUMERIC and cross the driver boundary as
// decimal text so no binary floating point is ever involved.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/shared"
	"github.com/starkbank-ledger/internal/platform/persistence"
)

const uniqueViolation = "23505"

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Querier(),
		logger:  logger,
	}
}

// Create stores a new account. A taken account number yields ErrDuplicateAccountID.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (id, first_name, last_name, balance, account_type)
		VALUES ($1, $2, $3, $4::numeric, $5)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.FirstName,
		acc.LastName,
		shared.FormatAmount(acc.Balance),
		string(acc.Type),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return account.ErrDuplicateAccountID{AccountID: acc.ID}
		}
		r.logger.Error("Failed to create account", "account_id", acc.ID, "error", err)
		return &shared.StorageError{Op: "create", AccountID: acc.ID, Err: fmt.Errorf("failed to create account: %w", err)}
	}

	return nil
}

// GetByID retrieves an account by its account number
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `
		SELECT id, first_name, last_name, balance::text, account_type
		FROM accounts
		WHERE id = $1
	`

	var (
		acc         account.Account
		balanceText string
		accountType string
	)
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&acc.ID,
		&acc.FirstName,
		&acc.LastName,
		&balanceText,
		&accountType,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "account_id", id, "error", err)
		return nil, &shared.StorageError{Op: "read", AccountID: id, Err: fmt.Errorf("failed to get account: %w", err)}
	}

	if acc.Balance, err = shared.ParseAmount(balanceText); err != nil {
		return nil, &shared.StorageError{Op: "read", AccountID: id, Err: err}
	}
	if acc.Type, err = account.ParseType(accountType); err != nil {
		return nil, &shared.StorageError{Op: "read", AccountID: id, Err: err}
	}

	return &acc, nil
}

// Update replaces every mutable column of the account in a single statement
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET first_name = $1, last_name = $2, balance = $3::numeric, account_type = $4, updated_at = NOW()
		WHERE id = $5
	`

	result, err := r.querier.Exec(ctx, query,
		acc.FirstName,
		acc.LastName,
		shared.FormatAmount(acc.Balance),
		string(acc.Type),
		acc.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update account", "account_id", acc.ID, "error", err)
		return &shared.StorageError{Op: "update", AccountID: acc.ID, Err: fmt.Errorf("failed to update account: %w", err)}
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountID: acc.ID}
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

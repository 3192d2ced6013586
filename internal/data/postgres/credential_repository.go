package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/starkbank-ledger/internal/domain/credential"
	"github.com/starkbank-ledger/internal/platform/persistence"
)

// CredentialRepository implements the credential.Repository interface for PostgreSQL
type CredentialRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCredentialRepository creates a new PostgreSQL credential repository
func NewCredentialRepository(logger *slog.Logger, db *persistence.PostgresDB) credential.Repository {
	return &CredentialRepository{
		querier: db.Querier(),
		logger:  logger,
	}
}

// Add inserts a credential row; the primary key on username enforces uniqueness
func (r *CredentialRepository) Add(ctx context.Context, cred *credential.Credential) error {
	query := `
		INSERT INTO credentials (username, password_hash, account_id)
		VALUES ($1, $2, $3)
	`

	_, err := r.querier.Exec(ctx, query, cred.Username, cred.PasswordHash, cred.AccountID)
	if err != nil {
		if isUniqueViolation(err) {
			return credential.ErrDuplicateUsername{Username: cred.Username}
		}
		r.logger.Error("Failed to add credential", "username", cred.Username, "error", err)
		return fmt.Errorf("failed to add credential: %w", err)
	}

	return nil
}

// GetByUsername retrieves the credential for a login name
func (r *CredentialRepository) GetByUsername(ctx context.Context, username string) (*credential.Credential, error) {
	query := `
		SELECT username, password_hash, account_id
		FROM credentials
		WHERE username = $1
	`

	var cred credential.Credential
	err := r.querier.QueryRow(ctx, query, username).Scan(&cred.Username, &cred.PasswordHash, &cred.AccountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, credential.ErrCredentialNotFound{Username: username}
		}
		r.logger.Error("Failed to get credential", "username", username, "error", err)
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	return &cred, nil
}

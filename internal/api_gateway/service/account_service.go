package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/credential"
	"github.com/starkbank-ledger/internal/domain/ledger"
)

// maxIDAttempts bounds how often a colliding account number is regenerated
const maxIDAttempts = 5

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo    account.Repository
	credentialRepo credential.Repository
	opener         ledger.Opener // nil when the transaction log has no opening header
	logger         *slog.Logger

	signupMu sync.Mutex // Keeps the username check and the credential insert together
}

// NewAccountService creates a new account service. ledgerRepo receives the opening header
// when it implements ledger.Opener.
func NewAccountService(logger *slog.Logger, accountRepo account.Repository, credentialRepo credential.Repository, ledgerRepo ledger.Repository) AccountService {
	opener, _ := ledgerRepo.(ledger.Opener)
	return &AccountServiceImpl{
		accountRepo:    accountRepo,
		credentialRepo: credentialRepo,
		opener:         opener,
		logger:         logger,
	}
}

// Signup validates the input, creates the account under a fresh account number and registers the login
func (s *AccountServiceImpl) Signup(ctx context.Context, input SignupInput) (*account.Account, error) {
	acc, err := account.NewAccount(input.FirstName, input.LastName, input.InitialBalance, input.AccountType)
	if err != nil {
		return nil, err
	}
	cred, err := credential.NewCredential(input.Username, input.Password, "")
	if err != nil {
		return nil, err
	}

	s.signupMu.Lock()
	defer s.signupMu.Unlock()

	_, err = s.credentialRepo.GetByUsername(ctx, input.Username)
	switch {
	case err == nil:
		return nil, credential.ErrDuplicateUsername{Username: input.Username}
	case !errors.Is(err, credential.ErrCredentialNotFound{}):
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	if err := s.createWithFreshID(ctx, acc); err != nil {
		return nil, err
	}

	if s.opener != nil {
		if err := s.opener.Open(ctx, acc.ID, string(acc.Type), acc.Balance, time.Now()); err != nil {
			s.logger.Error("Failed to write opening history header", "account_id", acc.ID, "error", err)
		}
	}

	cred.AccountID = acc.ID
	if err := s.credentialRepo.Add(ctx, cred); err != nil {
		s.logger.Error("Account created without credential", "account_id", acc.ID, "username", input.Username, "error", err)
		return nil, fmt.Errorf("failed to register credential: %w", err)
	}

	s.logger.Info("Account opened", "account_id", acc.ID, "account_type", acc.Type, "username", input.Username)
	return acc, nil
}

func (s *AccountServiceImpl) createWithFreshID(ctx context.Context, acc *account.Account) error {
	for attempt := 1; ; attempt++ {
		err := s.accountRepo.Create(ctx, acc)
		if err == nil {
			return nil
		}
		if !errors.Is(err, account.ErrDuplicateAccountID{}) || attempt == maxIDAttempts {
			return err
		}
		s.logger.Warn("Account number collision, regenerating", "account_id", acc.ID, "attempt", attempt)
		acc.ID = account.NewID()
	}
}

// GetAccountByID retrieves an account by its ID, returns ErrAccountNotFound if not found
func (s *AccountServiceImpl) GetAccountByID(ctx context.Context, id string) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

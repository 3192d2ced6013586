package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/credential"
	"github.com/starkbank-ledger/internal/transaction_processor/service"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found")
)

// Session binds an opaque ID to a logged-in customer
type Session struct {
	ID        string
	Customer  *Customer
	CreatedAt time.Time

	lastSeen time.Time
}

// Registry resolves credentials to accounts and keeps the live sessions
type Registry struct {
	credentials credential.Repository
	accounts    account.Repository
	ledger      service.LedgerService
	logger      *slog.Logger

	idleTimeout time.Duration
	now         func() time.Time

	mu        sync.Mutex
	sessions  map[string]*Session
	lastSweep time.Time
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithIdleTimeout expires sessions that have not been used for d. Zero keeps sessions until logout.
func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.idleTimeout = d
	}
}

func NewRegistry(logger *slog.Logger, credentials credential.Repository, accounts account.Repository, ledgerService service.LedgerService, opts ...RegistryOption) *Registry {
	r := &Registry{
		credentials: credentials,
		accounts:    accounts,
		ledger:      ledgerService,
		logger:      logger,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.lastSweep = r.now()
	return r
}

// Login checks the password against the credential index and opens a session on the linked account.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (r *Registry) Login(ctx context.Context, username, password string) (*Session, error) {
	cred, err := r.credentials.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, credential.ErrCredentialNotFound{}) {
			r.logger.Info("Login failed, unknown username", "username", username)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up credentials: %w", err)
	}

	if err := cred.Verify(password); err != nil {
		r.logger.Info("Login failed, wrong password", "username", username)
		return nil, ErrInvalidCredentials
	}

	acc, err := r.accounts.GetByID(ctx, cred.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account for %s: %w", username, err)
	}

	now := r.now()
	s := &Session{
		ID:        uuid.NewString(),
		Customer:  NewCustomer(acc, r.ledger, r.accounts),
		CreatedAt: now.UTC(),
		lastSeen:  now,
	}

	r.mu.Lock()
	if r.idleTimeout > 0 && now.Sub(r.lastSweep) >= r.idleTimeout {
		r.sweep(now)
	}
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Info("Session opened", "session_id", s.ID, "account_id", acc.ID)
	return s, nil
}

// Get returns a live session and marks it as used
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := r.now()
	if r.expired(s, now) {
		delete(r.sessions, id)
		r.logger.Info("Session expired", "session_id", id)
		return nil, ErrSessionNotFound
	}
	s.lastSeen = now
	return s, nil
}

func (r *Registry) expired(s *Session, now time.Time) bool {
	return r.idleTimeout > 0 && now.Sub(s.lastSeen) >= r.idleTimeout
}

// sweep drops every idle session. Callers hold mu.
func (r *Registry) sweep(now time.Time) {
	dropped := 0
	for id, s := range r.sessions {
		if r.expired(s, now) {
			delete(r.sessions, id)
			dropped++
		}
	}
	r.lastSweep = now
	if dropped > 0 {
		r.logger.Info("Expired idle sessions", "count", dropped, "open", len(r.sessions))
	}
}

func (r *Registry) Logout(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	r.logger.Info("Session closed", "session_id", id)
	return nil
}

// Count returns the number of open sessions
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

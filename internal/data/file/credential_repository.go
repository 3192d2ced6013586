package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/starkbank-ledger/internal/domain/credential"
)

// CredentialRepository implements credential.Repository on top of a single
// append-only "userLoginInfo.txt" index with one "<username> <hash> <accountId>" row per user.
type CredentialRepository struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewCredentialRepository creates a file-backed credential index inside dir
func NewCredentialRepository(logger *slog.Logger, dir string) credential.Repository {
	return &CredentialRepository{
		path:   filepath.Join(dir, credentialFileName),
		logger: logger,
	}
}

// Add appends a credential row. Returns ErrDuplicateUsername if the username is already indexed.
func (r *CredentialRepository) Add(ctx context.Context, cred *credential.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.find(cred.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return credential.ErrDuplicateUsername{Username: cred.Username}
	}

	line := fmt.Sprintf("%s %s %s", cred.Username, cred.PasswordHash, cred.AccountID)
	if err := appendLine(r.path, line); err != nil {
		r.logger.Error("Failed to append credential", "username", cred.Username, "error", err)
		return storageErr("add credential", cred.AccountID, fmt.Errorf("failed to append credential: %w", err))
	}
	return nil
}

// GetByUsername scans the index for a username
func (r *CredentialRepository) GetByUsername(ctx context.Context, username string) (*credential.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cred, err := r.find(username)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, credential.ErrCredentialNotFound{Username: username}
	}
	return cred, nil
}

func (r *CredentialRepository) find(username string) (*credential.Credential, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		r.logger.Error("Failed to open credential index", "error", err)
		return nil, storageErr("read credentials", "", fmt.Errorf("failed to open credential index: %w", err))
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 3 {
			continue
		}
		if fields[0] == username {
			return &credential.Credential{
				Username:     fields[0],
				PasswordHash: fields[1],
				AccountID:    fields[2],
			}, nil
		}
	}
	if err := sc.Err(); err != nil {
		r.logger.Error("Failed to scan credential index", "error", err)
		return nil, storageErr("read credentials", "", fmt.Errorf("failed to scan credential index: %w", err))
	}
	return nil, nil
}

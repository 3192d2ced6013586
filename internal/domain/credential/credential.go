package credential

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmptyUsername     = errors.New("username cannot be empty")
	ErrMalformedUsername = errors.New("username cannot contain whitespace")
	ErrEmptyPassword     = errors.New("password cannot be empty")
	ErrInvalidPassword   = errors.New("invalid username or password")
)

// Credential maps a login name to the account it unlocks
type Credential struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	AccountID    string `json:"account_id"`
}

// NewCredential validates the username and hashes the password with bcrypt
func NewCredential(username, password, accountID string) (*Credential, error) {
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if strings.ContainsAny(username, " \t\r\n") {
		return nil, ErrMalformedUsername
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &Credential{
		Username:     username,
		PasswordHash: string(hash),
		AccountID:    accountID,
	}, nil
}

// Verify compares a plain-text password against the stored hash
func (c *Credential) Verify(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

// Repository is the credential index. Usernames are unique across the index.
type Repository interface {
	Add(ctx context.Context, cred *Credential) error
	GetByUsername(ctx context.Context, username string) (*Credential, error)
}

// ErrDuplicateUsername indicates username uniqueness violation
type ErrDuplicateUsername struct {
	Username string
}

func (e ErrDuplicateUsername) Error() string {
	return "username already taken: " + e.Username
}

// Is implements the errors.Is interface for ErrDuplicateUsername
func (e ErrDuplicateUsername) Is(target error) bool {
	t, ok := target.(ErrDuplicateUsername)
	if !ok {
		return false
	}
	return t.Username == "" || e.Username == t.Username
}

// ErrCredentialNotFound indicates an unknown username
type ErrCredentialNotFound struct {
	Username string
}

func (e ErrCredentialNotFound) Error() string {
	return "no credential for username: " + e.Username
}

// Is implements the errors.Is interface for ErrCredentialNotFound
func (e ErrCredentialNotFound) Is(target error) bool {
	t, ok := target.(ErrCredentialNotFound)
	if !ok {
		return false
	}
	return t.Username == "" || e.Username == t.Username
}

package account

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/starkbank-ledger/internal/domain/shared"
)

// Common errors
var (
	ErrInsufficientFunds  = errors.New("insufficient funds for withdrawal")
	ErrInvalidAmount      = errors.New("amount must be non-negative with at most two decimal places")
	ErrEmptyOwnerName     = errors.New("owner name cannot be empty")
	ErrInvalidAccountType = errors.New("account type must be Checking or Saving")
	ErrMalformedOwnerName = errors.New("owner names cannot contain whitespace")
)

// IDDigits is the length of a generated account number
const IDDigits = 10

// Type is the kind of bank account
type Type string

const (
	TypeChecking Type = "Checking"
	TypeSaving   Type = "Saving"
)

// ParseType accepts the account type case-insensitively
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "checking":
		return TypeChecking, nil
	case "saving", "savings":
		return TypeSaving, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAccountType, s)
}

// Account represents a bank account record
type Account struct {
	ID        string          `json:"id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Balance   decimal.Decimal `json:"balance"`
	Type      Type            `json:"account_type"`
}

// NewAccount creates a new account with a freshly generated account number
func NewAccount(firstName, lastName string, initialBalance decimal.Decimal, accountType Type) (*Account, error) {
	if firstName == "" || lastName == "" {
		return nil, ErrEmptyOwnerName
	}
	if strings.ContainsAny(firstName+lastName, " \t\r\n") {
		return nil, ErrMalformedOwnerName
	}
	if accountType != TypeChecking && accountType != TypeSaving {
		return nil, ErrInvalidAccountType
	}
	if err := ValidateAmount(initialBalance); err != nil {
		return nil, err
	}

	return &Account{
		ID:        NewID(),
		FirstName: firstName,
		LastName:  lastName,
		Balance:   initialBalance,
		Type:      accountType,
	}, nil
}

// NewID returns a random 10-digit account number without a leading zero
func NewID() string {
	return fmt.Sprintf("%d", rand.Int64N(9_000_000_000)+1_000_000_000)
}

// ValidateAmount rejects negative amounts and amounts finer than one cent
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() || !shared.HasMinorUnitPrecision(amount) {
		return ErrInvalidAmount
	}
	return nil
}

// FullName returns "First Last"
func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Deposit adds the specified amount to the account balance
func (a *Account) Deposit(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	a.Balance = a.Balance.Add(amount)
	return nil
}

// Withdraw subtracts the specified amount from the account balance
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	if !a.CanWithdraw(amount) {
		return ErrInsufficientFunds
	}

	a.Balance = a.Balance.Sub(amount)
	return nil
}

// CanWithdraw checks if the account has sufficient funds for a withdrawal
func (a *Account) CanWithdraw(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// Clone returns a copy safe to mutate without affecting the receiver
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

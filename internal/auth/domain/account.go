package domain

import (
	"errors"
	"time"
)

// AccountState is the verification state of an account. The zero value is not
// a valid state.
type AccountState string

const (
	AccountPending AccountState = "pending"
	AccountActive  AccountState = "active"
)

var ErrInvalidAccountState = errors.New("domain: invalid account state")

// ParseAccountState maps a persisted value back onto the closed set of states.
func ParseAccountState(s string) (AccountState, error) {
	switch AccountState(s) {
	case AccountPending, AccountActive:
		return AccountState(s), nil
	default:
		return "", ErrInvalidAccountState
	}
}

func (s AccountState) String() string { return string(s) }

type Account struct {
	ID           string
	Username     string
	Email        string // unique, compared as stored
	PasswordHash string // argon2id PHC string
	State        AccountState
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive reports whether the account has completed email verification.
func (a Account) IsActive() bool { return a.State == AccountActive }

package store

import (
	"context"
	"errors"
	"time"

	"github.com/shelfmark/catalogue/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories hang off the root so a transaction scoped
// store exposes exactly the same surface as the pooled one.
type Store interface {
	Accounts() Accounts
	VerificationTokens() VerificationTokens
	OTPTokens() OTPTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. A nil return commits, anything
	// else rolls back. fn must only use the Tx it is handed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)

	// GetByEmail matches the email exactly as stored.
	GetByEmail(ctx context.Context, email string) (domain.Account, error)

	// Create inserts a new account. A duplicate email yields ErrAlreadyExists.
	Create(ctx context.Context, a domain.Account) error

	// UpdatePasswordHash sets the password hash and bumps updated_at. It
	// returns ErrNotFound when no account has that id.
	UpdatePasswordHash(ctx context.Context, id, hash string) error

	// Activate flips a pending account to active. It reports false when no
	// pending account with that id exists.
	Activate(ctx context.Context, id string) (bool, error)

	// Delete removes the account and cascades to its tokens.
	Delete(ctx context.Context, id string) error

	// DeletePending removes the account only while it is still pending and
	// reports whether a row was removed.
	DeletePending(ctx context.Context, id string) (bool, error)
}

type VerificationTokens interface {
	Create(ctx context.Context, t domain.VerificationToken) error

	// GetByHash looks a token up by the fingerprint of its signed value.
	GetByHash(ctx context.Context, hash string) (domain.VerificationToken, error)

	// Delete is idempotent, a missing row is not an error.
	Delete(ctx context.Context, id string) error

	// ListExpired returns every token whose expiry is at or before the given time.
	ListExpired(ctx context.Context, before time.Time) ([]domain.VerificationToken, error)
}

type OTPTokens interface {
	Create(ctx context.Context, t domain.OTPToken) error

	// FirstByAccount returns the earliest created OTP for the account.
	FirstByAccount(ctx context.Context, accountID string) (domain.OTPToken, error)

	// Delete is idempotent, a missing row is not an error.
	Delete(ctx context.Context, id string) error

	ListExpired(ctx context.Context, before time.Time) ([]domain.OTPToken, error)
}

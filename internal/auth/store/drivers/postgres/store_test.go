package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shelfmark/catalogue/internal/auth/domain"
	"github.com/shelfmark/catalogue/internal/auth/store"
	"github.com/shelfmark/catalogue/internal/auth/store/drivers/postgres"
	"github.com/shelfmark/catalogue/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgImage    = "postgres:16-alpine"
	pgUser     = "catalogue"
	pgPassword = "catalogue"
	pgDatabase = "catalogue"
)

// setupPostgres starts a throwaway PostgreSQL container and returns a migrated
// store. The container lives for the duration of the test.
func setupPostgres(t *testing.T) *postgres.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        pgImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDatabase,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		pgUser, pgPassword, host, port.Port(), pgDatabase)

	st, err := postgres.NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	// Re-running is a no-op.
	require.NoError(t, st.ApplyMigrations())
	return st
}

func newAccount(email string, state domain.AccountState) domain.Account {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.Account{
		ID:           idx.New().String(),
		Username:     "reader",
		Email:        email,
		PasswordHash: "$argon2id$stub",
		State:        state,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestPostgresStore(t *testing.T) {
	st := setupPostgres(t)
	ctx := context.Background()

	t.Run("accounts", func(t *testing.T) {
		acc := newAccount("pg@x.com", domain.AccountPending)
		require.NoError(t, st.Accounts().Create(ctx, acc))

		got, err := st.Accounts().GetByEmail(ctx, "pg@x.com")
		require.NoError(t, err)
		require.Equal(t, acc, got)

		require.ErrorIs(t, st.Accounts().Create(ctx, newAccount("pg@x.com", domain.AccountPending)), store.ErrAlreadyExists)

		ok, err := st.Accounts().Activate(ctx, acc.ID)
		require.NoError(t, err)
		require.True(t, ok)

		removed, err := st.Accounts().DeletePending(ctx, acc.ID)
		require.NoError(t, err)
		require.False(t, removed)

		require.NoError(t, st.Accounts().UpdatePasswordHash(ctx, acc.ID, "$argon2id$new"))

		require.NoError(t, st.Accounts().Delete(ctx, acc.ID))
		_, err = st.Accounts().GetByID(ctx, acc.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, st.Accounts().UpdatePasswordHash(ctx, acc.ID, "$argon2id$gone"), store.ErrNotFound)
	})

	t.Run("concurrent duplicate inserts", func(t *testing.T) {
		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			created   int
			conflicts int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := st.Accounts().Create(ctx, newAccount("race@x.com", domain.AccountPending))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					created++
				case errors.Is(err, store.ErrAlreadyExists):
					conflicts++
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 1, created)
		require.Equal(t, workers-1, conflicts)
	})

	t.Run("tokens", func(t *testing.T) {
		acc := newAccount("tok@x.com", domain.AccountPending)
		require.NoError(t, st.Accounts().Create(ctx, acc))

		now := time.Now().UTC().Truncate(time.Microsecond)
		vt := domain.VerificationToken{
			ID:        idx.New().String(),
			AccountID: acc.ID,
			TokenHash: "pg-fingerprint",
			ExpiresAt: now.Add(-time.Minute),
			CreatedAt: now.Add(-time.Hour),
		}
		require.NoError(t, st.VerificationTokens().Create(ctx, vt))

		got, err := st.VerificationTokens().GetByHash(ctx, vt.TokenHash)
		require.NoError(t, err)
		require.Equal(t, vt, got)

		expired, err := st.VerificationTokens().ListExpired(ctx, now)
		require.NoError(t, err)
		require.Len(t, expired, 1)

		older := domain.OTPToken{
			ID: idx.New().String(), AccountID: acc.ID, CodeHash: "older",
			ExpiresAt: now.Add(time.Minute), CreatedAt: now.Add(-2 * time.Minute),
		}
		newer := domain.OTPToken{
			ID: idx.New().String(), AccountID: acc.ID, CodeHash: "newer",
			ExpiresAt: now.Add(time.Minute), CreatedAt: now,
		}
		require.NoError(t, st.OTPTokens().Create(ctx, newer))
		require.NoError(t, st.OTPTokens().Create(ctx, older))

		first, err := st.OTPTokens().FirstByAccount(ctx, acc.ID)
		require.NoError(t, err)
		require.Equal(t, "older", first.CodeHash)

		err = st.WithTx(ctx, func(tx store.Tx) error {
			if _, err := tx.Accounts().DeletePending(ctx, acc.ID); err != nil {
				return err
			}
			return tx.VerificationTokens().Delete(ctx, vt.ID)
		})
		require.NoError(t, err)

		_, err = st.OTPTokens().FirstByAccount(ctx, acc.ID)
		require.ErrorIs(t, err, store.ErrNotFound, "otp rows cascade with the account")
	})
}

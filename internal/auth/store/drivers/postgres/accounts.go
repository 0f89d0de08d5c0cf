package postgres

import (
	"context"
	"database/sql"

	"github.com/shelfmark/catalogue/internal/auth/domain"
	"github.com/shelfmark/catalogue/internal/auth/store"
)

const accountColumns = `id, username, email, password_hash, state, created_at, updated_at`

type accountsRepo struct {
	db DBTX
}

func (r *accountsRepo) GetByID(ctx context.Context, id string) (domain.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (r *accountsRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) error {
	created := nowOr(a.CreatedAt)
	updated := created
	if !a.UpdatedAt.IsZero() {
		updated = a.UpdatedAt.UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Username, a.Email, a.PasswordHash, a.State.String(), created, updated)
	return mapConstraint(err)
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	ok, err := affected(r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = $1, updated_at = now() WHERE id = $2`, hash, id))
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	return nil
}

func (r *accountsRepo) Activate(ctx context.Context, id string) (bool, error) {
	return affected(r.db.ExecContext(ctx,
		`UPDATE accounts SET state = $1, updated_at = now() WHERE id = $2 AND state = $3`,
		domain.AccountActive.String(), id, domain.AccountPending.String()))
}

func (r *accountsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	return err
}

func (r *accountsRepo) DeletePending(ctx context.Context, id string) (bool, error) {
	return affected(r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = $1 AND state = $2`, id, domain.AccountPending.String()))
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a     domain.Account
		state string
	)
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &state, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	s, err := domain.ParseAccountState(state)
	if err != nil {
		return domain.Account{}, err
	}
	a.State = s
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/shelfmark/catalogue/internal/auth/domain"
	"github.com/shelfmark/catalogue/internal/auth/store"
)

const accountColumns = `id, username, email, password_hash, state, created_at, updated_at`

type accountsRepo struct {
	db DBTX
}

func (r *accountsRepo) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) error {
	created := nowOr(a.CreatedAt)
	updated := a.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Username,
		a.Email,
		a.PasswordHash,
		a.State.String(),
		toMillis(created),
		toMillis(updated),
	)
	return mapConstraint(err)
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	ok, err := affected(r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, toMillis(time.Now()), id))
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	return nil
}

func (r *accountsRepo) Activate(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET state = ?, updated_at = ? WHERE id = ? AND state = ?`,
		domain.AccountActive.String(), toMillis(time.Now()), id, domain.AccountPending.String())
	return affected(res, err)
}

func (r *accountsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	return err
}

func (r *accountsRepo) DeletePending(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = ? AND state = ?`,
		id, domain.AccountPending.String())
	return affected(res, err)
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a                domain.Account
		state            string
		created, updated int64
	)
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &state, &created, &updated); err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	s, err := domain.ParseAccountState(state)
	if err != nil {
		return domain.Account{}, err
	}
	a.State = s
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	return a, nil
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

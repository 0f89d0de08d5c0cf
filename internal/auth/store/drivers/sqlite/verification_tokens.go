package sqlite

import (
	"context"
	"time"

	"github.com/shelfmark/catalogue/internal/auth/domain"
)

type verificationTokensRepo struct {
	db DBTX
}

func (r *verificationTokensRepo) Create(ctx context.Context, t domain.VerificationToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO verification_tokens (id, account_id, token_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.TokenHash, toMillis(t.ExpiresAt), toMillis(nowOr(t.CreatedAt)))
	return mapConstraint(err)
}

func (r *verificationTokensRepo) GetByHash(ctx context.Context, hash string) (domain.VerificationToken, error) {
	var (
		t                domain.VerificationToken
		expires, created int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, token_hash, expires_at, created_at
		 FROM verification_tokens WHERE token_hash = ?`, hash,
	).Scan(&t.ID, &t.AccountID, &t.TokenHash, &expires, &created)
	if err != nil {
		return domain.VerificationToken{}, mapNotFound(err)
	}
	t.ExpiresAt = fromMillis(expires)
	t.CreatedAt = fromMillis(created)
	return t, nil
}

func (r *verificationTokensRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM verification_tokens WHERE id = ?`, id)
	return err
}

func (r *verificationTokensRepo) ListExpired(ctx context.Context, before time.Time) ([]domain.VerificationToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, token_hash, expires_at, created_at
		 FROM verification_tokens WHERE expires_at <= ? ORDER BY expires_at`, toMillis(before))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.VerificationToken
	for rows.Next() {
		var (
			t                domain.VerificationToken
			expires, created int64
		)
		if err := rows.Scan(&t.ID, &t.AccountID, &t.TokenHash, &expires, &created); err != nil {
			return nil, err
		}
		t.ExpiresAt = fromMillis(expires)
		t.CreatedAt = fromMillis(created)
		out = append(out, t)
	}
	return out, rows.Err()
}

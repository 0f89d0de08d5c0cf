package sqlite

import (
	"context"
	"time"

	"github.com/shelfmark/catalogue/internal/auth/domain"
)

type otpTokensRepo struct {
	db DBTX
}

func (r *otpTokensRepo) Create(ctx context.Context, t domain.OTPToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_tokens (id, account_id, code_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.CodeHash, toMillis(t.ExpiresAt), toMillis(nowOr(t.CreatedAt)))
	return mapConstraint(err)
}

func (r *otpTokensRepo) FirstByAccount(ctx context.Context, accountID string) (domain.OTPToken, error) {
	var (
		t                domain.OTPToken
		expires, created int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, code_hash, expires_at, created_at
		 FROM otp_tokens WHERE account_id = ?
		 ORDER BY created_at, id LIMIT 1`, accountID,
	).Scan(&t.ID, &t.AccountID, &t.CodeHash, &expires, &created)
	if err != nil {
		return domain.OTPToken{}, mapNotFound(err)
	}
	t.ExpiresAt = fromMillis(expires)
	t.CreatedAt = fromMillis(created)
	return t, nil
}

func (r *otpTokensRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otp_tokens WHERE id = ?`, id)
	return err
}

func (r *otpTokensRepo) ListExpired(ctx context.Context, before time.Time) ([]domain.OTPToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, code_hash, expires_at, created_at
		 FROM otp_tokens WHERE expires_at <= ? ORDER BY expires_at`, toMillis(before))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OTPToken
	for rows.Next() {
		var (
			t                domain.OTPToken
			expires, created int64
		)
		if err := rows.Scan(&t.ID, &t.AccountID, &t.CodeHash, &expires, &created); err != nil {
			return nil, err
		}
		t.ExpiresAt = fromMillis(expires)
		t.CreatedAt = fromMillis(created)
		out = append(out, t)
	}
	return out, rows.Err()
}

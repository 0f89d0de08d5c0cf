package postgres

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
		 VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.AccountID, t.TokenHash, t.ExpiresAt.UTC(), nowOr(t.CreatedAt))
	return mapConstraint(err)
}

func (r *verificationTokensRepo) GetByHash(ctx context.Context, hash string) (domain.VerificationToken, error) {
	var t domain.VerificationToken
	err := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, token_hash, expires_at, created_at
		 FROM verification_tokens WHERE token_hash = $1`, hash,
	).Scan(&t.ID, &t.AccountID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.VerificationToken{}, mapNotFound(err)
	}
	t.ExpiresAt, t.CreatedAt = t.ExpiresAt.UTC(), t.CreatedAt.UTC()
	return t, nil
}

func (r *verificationTokensRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM verification_tokens WHERE id = $1`, id)
	return err
}

func (r *verificationTokensRepo) ListExpired(ctx context.Context, before time.Time) ([]domain.VerificationToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, token_hash, expires_at, created_at
		 FROM verification_tokens WHERE expires_at <= $1 ORDER BY expires_at`, before.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.VerificationToken
	for rows.Next() {
		var t domain.VerificationToken
		if err := rows.Scan(&t.ID, &t.AccountID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.ExpiresAt, t.CreatedAt = t.ExpiresAt.UTC(), t.CreatedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

type otpTokensRepo struct {
	db DBTX
}

func (r *otpTokensRepo) Create(ctx context.Context, t domain.OTPToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_tokens (id, account_id, code_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.AccountID, t.CodeHash, t.ExpiresAt.UTC(), nowOr(t.CreatedAt))
	return mapConstraint(err)
}

func (r *otpTokensRepo) FirstByAccount(ctx context.Context, accountID string) (domain.OTPToken, error) {
	var t domain.OTPToken
	err := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, code_hash, expires_at, created_at
		 FROM otp_tokens WHERE account_id = $1
		 ORDER BY created_at, id LIMIT 1`, accountID,
	).Scan(&t.ID, &t.AccountID, &t.CodeHash, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.OTPToken{}, mapNotFound(err)
	}
	t.ExpiresAt, t.CreatedAt = t.ExpiresAt.UTC(), t.CreatedAt.UTC()
	return t, nil
}

func (r *otpTokensRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otp_tokens WHERE id = $1`, id)
	return err
}

func (r *otpTokensRepo) ListExpired(ctx context.Context, before time.Time) ([]domain.OTPToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, code_hash, expires_at, created_at
		 FROM otp_tokens WHERE expires_at <= $1 ORDER BY expires_at`, before.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OTPToken
	for rows.Next() {
		var t domain.OTPToken
		if err := rows.Scan(&t.ID, &t.AccountID, &t.CodeHash, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.ExpiresAt, t.CreatedAt = t.ExpiresAt.UTC(), t.CreatedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

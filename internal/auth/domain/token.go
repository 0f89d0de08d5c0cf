package domain

import "time"

// VerificationToken is the stored half of an email verification link. Only
// the fingerprint of the signed token is kept.
type VerificationToken struct {
	ID        string
	AccountID string
	TokenHash string // base64url SHA-256 of the signed token
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t VerificationToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// OTPToken is a single-use password reset code bound to an account.
type OTPToken struct {
	ID        string
	AccountID string
	CodeHash  string // argon2id PHC string of the 6 digit code
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t OTPToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

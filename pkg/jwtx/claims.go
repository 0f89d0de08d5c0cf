package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shelfmark/catalogue/pkg/idx"
)

// Token types carried in the "typ" claim. A verifier bound to one type
// rejects tokens minted for another.
const (
	TypeAccess       = "access"
	TypeVerification = "verification"
)

// DefaultAccessTokenTTL is the lifetime of an access token when none is configured.
const DefaultAccessTokenTTL = 48 * time.Hour

// Claims are shared by access and email verification tokens.
type Claims struct {
	jwt.RegisteredClaims

	// Type distinguishes access tokens from verification tokens.
	Type string `json:"typ,omitempty"`

	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// NewAccessClaims builds the claims for a bearer token issued at sign-in.
func NewAccessClaims(
	subject, username, email string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: registered(subject, issuer, audience, ttl, now),
		Type:             TypeAccess,
		Username:         username,
		Email:            email,
	}
}

// NewVerificationClaims builds the claims embedded in an email verification link.
func NewVerificationClaims(subject, email string, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: registered(subject, issuer, nil, ttl, now),
		Type:             TypeVerification,
		Email:            email,
	}
}

func registered(subject, issuer string, audience []string, ttl time.Duration, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings(audience),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        NewJTI(now),
	}
}

// NewJTI returns a unique, time-sortable identifier for the "jti" claim.
func NewJTI(now time.Time) string {
	return idx.NewAt(now).String()
}

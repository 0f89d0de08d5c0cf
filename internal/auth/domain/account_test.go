package domain_test

import (
	"testing"
	"time"

	"github.com/shelfmark/catalogue/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestParseAccountState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    domain.AccountState
		wantErr bool
	}{
		{in: "pending", want: domain.AccountPending},
		{in: "active", want: domain.AccountActive},
		{in: "ACTIVE", wantErr: true},
		{in: "verified", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := domain.ParseAccountState(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidAccountState)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTokenExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tok := domain.VerificationToken{ExpiresAt: now.Add(time.Hour)}

	require.False(t, tok.Expired(now))
	require.True(t, tok.Expired(now.Add(time.Hour)))
	require.True(t, domain.OTPToken{ExpiresAt: now}.Expired(now.Add(time.Second)))
}

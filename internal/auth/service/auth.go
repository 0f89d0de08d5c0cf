package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/shelfmark/catalogue/internal/auth/domain"
	"github.com/shelfmark/catalogue/internal/auth/notify"
	"github.com/shelfmark/catalogue/internal/auth/store"
	"github.com/shelfmark/catalogue/pkg/cryptox"
	"github.com/shelfmark/catalogue/pkg/idx"
	"github.com/shelfmark/catalogue/pkg/jwtx"
	"github.com/shelfmark/catalogue/pkg/slogx"
)

const (
	DefaultVerificationTTL = time.Hour
	DefaultOTPTTL          = 15 * time.Minute
	DefaultVerifyPath      = "/v1/authentication/verify"
)

const (
	MsgVerificationSent = "Verification email sent"
	MsgEmailVerified    = "Email verified successfully"
	MsgPasswordUpdated  = "Password updated successfully"
	MsgOTPSent          = "OTP sent to your email"
	MsgOTPVerified      = "OTP verified successfully"
	MsgPasswordReset    = "Password reset successfully"
)

// Hasher is a one-way hash with a constant time comparison. It covers both
// passwords and OTP codes.
type Hasher interface {
	Hash(plain string) (string, error)
	Compare(plain, encoded string) bool
}

// TokenIssuer signs access and verification tokens and checks verification
// tokens coming back from an email link.
type TokenIssuer struct {
	Signer       jwtx.Signer
	Verification jwtx.Verifier
}

type AuthConfig struct {
	Issuer          string
	Audience        string
	AccessTTL       time.Duration
	VerificationTTL time.Duration
	OTPTTL          time.Duration

	// AppURL and VerifyPath form the link sent in the verification email.
	AppURL     string
	VerifyPath string
}

// AuthService owns every account state transition: sign-up, verification,
// sign-in and both password flows.
type AuthService struct {
	Store    store.Store
	Hasher   Hasher
	Tokens   TokenIssuer
	Notifier notify.Sender
	Now      func() time.Time
	Config   AuthConfig
}

type SignUpInput struct {
	Username string
	Email    string
	Password string
}

type SignUpResult struct {
	ID       string
	Username string
	Email    string
	Message  string
}

type SignInResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
}

type ResetPasswordInput struct {
	Email           string
	OTP             string
	NewPassword     string
	ConfirmPassword string
}

// SignUp creates a pending account with a single verification token and
// emails the verification link. When only the email fails the result is
// still returned alongside ErrVerificationNotSent.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (SignUpResult, error) {
	log := slogx.FromContext(ctx)

	_, err := s.Store.Accounts().GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return SignUpResult{}, ErrEmailTaken
	case !errors.Is(err, store.ErrNotFound):
		return SignUpResult{}, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return SignUpResult{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	account := domain.Account{
		ID:           idx.NewAt(now).String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		State:        domain.AccountPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ttl := s.verificationTTL()
	var token string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().Create(ctx, account); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create account: %w", err)
		}

		signed, err := s.Tokens.Signer.Sign(jwtx.NewVerificationClaims(account.ID, account.Email, ttl, s.Config.Issuer, now))
		if err != nil {
			return fmt.Errorf("sign verification token: %w", err)
		}

		record := domain.VerificationToken{
			ID:        idx.NewAt(now).String(),
			AccountID: account.ID,
			TokenHash: cryptox.FingerprintToken(signed),
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		}
		if err := tx.VerificationTokens().Create(ctx, record); err != nil {
			return fmt.Errorf("create verification token: %w", err)
		}

		token = signed
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			log.Info("sign-up rejected, email already registered")
		} else {
			log.Error("sign-up failed", slog.Any("error", err))
		}
		return SignUpResult{}, err
	}

	result := SignUpResult{
		ID:       account.ID,
		Username: account.Username,
		Email:    account.Email,
		Message:  MsgVerificationSent,
	}

	log.Info("account created", slog.String("account_id", account.ID))

	msg, err := notify.VerificationMessage(account.Email, account.Username, s.verificationLink(token), ttl)
	if err == nil {
		err = s.Notifier.Send(ctx, msg)
	}
	if err != nil {
		log.Error("failed to send verification email",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
		return result, fmt.Errorf("%w: %w", ErrVerificationNotSent, err)
	}

	return result, nil
}

// SignIn issues an access token for an active account with a matching password.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	account, err := s.accountByEmail(ctx, email)
	if err != nil {
		return SignInResult{}, err
	}
	if !account.IsActive() {
		return SignInResult{}, ErrEmailNotVerified
	}
	if !s.Hasher.Compare(password, account.PasswordHash) {
		slogx.FromContext(ctx).Info("sign-in rejected, password mismatch",
			slog.String("account_id", account.ID),
		)
		return SignInResult{}, ErrInvalidPassword
	}

	ttl := s.accessTTL()
	var audience []string
	if s.Config.Audience != "" {
		audience = []string{s.Config.Audience}
	}
	claims := jwtx.NewAccessClaims(account.ID, account.Username, account.Email, ttl, s.Config.Issuer, audience, s.now())

	token, err := s.Tokens.Signer.Sign(claims)
	if err != nil {
		return SignInResult{}, fmt.Errorf("sign access token: %w", err)
	}

	return SignInResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl / time.Second),
	}, nil
}

// VerifyEmail redeems a verification token. A token whose record has expired
// takes its still pending account down with it.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (string, error) {
	log := slogx.FromContext(ctx)

	claims, err := s.Tokens.Verification.Verify(token)
	if err != nil {
		log.Debug("verification token rejected", slog.Any("error", err))
		return "", ErrInvalidToken
	}

	record, err := s.Store.VerificationTokens().GetByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("lookup verification token: %w", err)
	}
	if record.AccountID != claims.Subject {
		return "", ErrTokenNotFound
	}

	if record.Expired(s.now()) {
		err := s.Store.WithTx(ctx, func(tx store.Tx) error {
			removed, err := tx.Accounts().DeletePending(ctx, record.AccountID)
			if err != nil {
				return fmt.Errorf("delete pending account: %w", err)
			}
			if removed {
				log.Info("removed pending account with expired verification token",
					slog.String("account_id", record.AccountID),
				)
			}
			return tx.VerificationTokens().Delete(ctx, record.ID)
		})
		if err != nil {
			return "", fmt.Errorf("discard expired verification: %w", err)
		}
		return "", ErrTokenExpired
	}

	account, err := s.accountByID(ctx, record.AccountID)
	if err != nil {
		return "", err
	}
	if account.IsActive() {
		return "", ErrAlreadyVerified
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		activated, err := tx.Accounts().Activate(ctx, account.ID)
		if err != nil {
			return fmt.Errorf("activate account: %w", err)
		}
		if !activated {
			// Either verified concurrently or removed by the reaper.
			current, err := tx.Accounts().GetByID(ctx, account.ID)
			switch {
			case errors.Is(err, store.ErrNotFound):
				return ErrAccountNotFound
			case err != nil:
				return fmt.Errorf("lookup account: %w", err)
			case current.IsActive():
				return ErrAlreadyVerified
			default:
				return fmt.Errorf("activate account %s: state %s", account.ID, current.State)
			}
		}
		return tx.VerificationTokens().Delete(ctx, record.ID)
	})
	if err != nil {
		return "", err
	}

	log.Info("email verified", slog.String("account_id", account.ID))
	return MsgEmailVerified, nil
}

// UpdatePassword replaces the password of an authenticated account.
func (s *AuthService) UpdatePassword(ctx context.Context, accountID, oldPassword, newPassword string) (string, error) {
	account, err := s.accountByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if !s.Hasher.Compare(oldPassword, account.PasswordHash) {
		return "", ErrOldPasswordIncorrect
	}
	if s.Hasher.Compare(newPassword, account.PasswordHash) {
		return "", ErrPasswordUnchanged
	}

	if err := s.setPassword(ctx, s.Store, account.ID, newPassword); err != nil {
		return "", err
	}

	slogx.FromContext(ctx).Info("password updated", slog.String("account_id", account.ID))
	return MsgPasswordUpdated, nil
}

// ForgotPassword stores a hashed one time code for an active account and
// emails the plaintext code.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	log := slogx.FromContext(ctx)

	account, err := s.activeAccount(ctx, email)
	if err != nil {
		return "", err
	}

	code, err := cryptox.GenerateOTP()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	codeHash, err := s.Hasher.Hash(code)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}

	now := s.now()
	ttl := s.otpTTL()
	otp := domain.OTPToken{
		ID:        idx.NewAt(now).String(),
		AccountID: account.ID,
		CodeHash:  codeHash,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.Store.OTPTokens().Create(ctx, otp); err != nil {
		return "", fmt.Errorf("create otp: %w", err)
	}

	msg, err := notify.PasswordResetMessage(account.Email, account.Username, code, ttl)
	if err == nil {
		err = s.Notifier.Send(ctx, msg)
	}
	if err != nil {
		log.Error("failed to send password reset email",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
		return "", fmt.Errorf("%w: %w", ErrOTPNotSent, err)
	}

	log.Info("password reset code issued", slog.String("account_id", account.ID))
	return MsgOTPSent, nil
}

// VerifyOTP checks a code against the account's oldest outstanding OTP. It
// does not consume the OTP.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	account, err := s.activeAccount(ctx, email)
	if err != nil {
		return "", err
	}

	if _, err := s.checkOTP(ctx, account.ID, code, ErrOTPNotFound); err != nil {
		return "", err
	}
	return MsgOTPVerified, nil
}

// ResetPassword sets a new password once the OTP has been presented again
// and matches. The OTP is consumed only on success.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) (string, error) {
	account, err := s.activeAccount(ctx, in.Email)
	if err != nil {
		return "", err
	}
	if in.NewPassword != in.ConfirmPassword {
		return "", ErrPasswordMismatch
	}

	otp, err := s.checkOTP(ctx, account.ID, in.OTP, ErrOTPRequired)
	if err != nil {
		return "", err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := s.setPassword(ctx, tx, account.ID, in.NewPassword); err != nil {
			return err
		}
		return tx.OTPTokens().Delete(ctx, otp.ID)
	})
	if err != nil {
		return "", err
	}

	slogx.FromContext(ctx).Info("password reset", slog.String("account_id", account.ID))
	return MsgPasswordReset, nil
}

// GetAccount returns the profile of the account behind an access token.
func (s *AuthService) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	return s.accountByID(ctx, accountID)
}

// checkOTP validates code against the oldest OTP of the account. Expired
// codes are deleted on sight. missing is returned when there is no OTP.
func (s *AuthService) checkOTP(ctx context.Context, accountID, code string, missing error) (domain.OTPToken, error) {
	otp, err := s.Store.OTPTokens().FirstByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.OTPToken{}, missing
		}
		return domain.OTPToken{}, fmt.Errorf("lookup otp: %w", err)
	}

	if otp.Expired(s.now()) {
		if err := s.Store.OTPTokens().Delete(ctx, otp.ID); err != nil {
			return domain.OTPToken{}, fmt.Errorf("delete expired otp: %w", err)
		}
		return domain.OTPToken{}, ErrOTPExpired
	}

	if !s.Hasher.Compare(strings.TrimSpace(code), otp.CodeHash) {
		return domain.OTPToken{}, ErrInvalidOTP
	}
	return otp, nil
}

func (s *AuthService) setPassword(ctx context.Context, st store.Store, accountID, password string) error {
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := st.Accounts().UpdatePasswordHash(ctx, accountID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *AuthService) activeAccount(ctx context.Context, email string) (domain.Account, error) {
	account, err := s.accountByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, err
	}
	if !account.IsActive() {
		return domain.Account{}, ErrEmailNotVerified
	}
	return account, nil
}

func (s *AuthService) accountByEmail(ctx context.Context, email string) (domain.Account, error) {
	account, err := s.Store.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}
	return account, nil
}

func (s *AuthService) accountByID(ctx context.Context, id string) (domain.Account, error) {
	account, err := s.Store.Accounts().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}
	return account, nil
}

func (s *AuthService) verificationLink(token string) string {
	path := s.Config.VerifyPath
	if path == "" {
		path = DefaultVerifyPath
	}
	return strings.TrimRight(s.Config.AppURL, "/") + path + "?token=" + url.QueryEscape(token)
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) accessTTL() time.Duration {
	if s.Config.AccessTTL > 0 {
		return s.Config.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *AuthService) verificationTTL() time.Duration {
	if s.Config.VerificationTTL > 0 {
		return s.Config.VerificationTTL
	}
	return DefaultVerificationTTL
}

func (s *AuthService) otpTTL() time.Duration {
	if s.Config.OTPTTL > 0 {
		return s.Config.OTPTTL
	}
	return DefaultOTPTTL
}

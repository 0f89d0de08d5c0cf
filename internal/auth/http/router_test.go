package http_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	authhttp "github.com/shelfmark/catalogue/internal/auth/http"
	"github.com/shelfmark/catalogue/internal/auth/notify"
	"github.com/shelfmark/catalogue/internal/auth/service"
	"github.com/shelfmark/catalogue/internal/auth/store/drivers/sqlite"
	"github.com/shelfmark/catalogue/pkg/authsdk"
	"github.com/shelfmark/catalogue/pkg/cryptox"
	"github.com/shelfmark/catalogue/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testPassword = "Str0ng!Pwd"
)

type mailbox struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (m *mailbox) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mailbox) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mailbox) match(t *testing.T, re *regexp.Regexp) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	sub := re.FindStringSubmatch(m.sent[len(m.sent)-1].Text)
	require.Len(t, sub, 2)
	return sub[1]
}

var (
	tokenRe = regexp.MustCompile(`token=([^\s"]+)`)
	codeRe  = regexp.MustCompile(`code is: (\d{6})`)
)

func (m *mailbox) token(t *testing.T) string {
	t.Helper()
	tok, err := url.QueryUnescape(m.match(t, tokenRe))
	require.NoError(t, err)
	return tok
}

func (m *mailbox) code(t *testing.T) string {
	t.Helper()
	return m.match(t, codeRe)
}

func newTestServer(t *testing.T) (*authsdk.Client, *mailbox) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	signer, err := jwtx.NewHS256Signer([]byte(testSecret))
	require.NoError(t, err)
	verification, err := jwtx.NewHS256Verifier([]byte(testSecret), jwtx.VerifyOptions{
		Issuer: "catalogue-auth",
		Type:   jwtx.TypeVerification,
		Leeway: 24 * time.Hour,
	})
	require.NoError(t, err)
	access, err := jwtx.NewHS256Verifier([]byte(testSecret), jwtx.VerifyOptions{
		Issuer:   "catalogue-auth",
		Audience: "catalogue",
		Type:     jwtx.TypeAccess,
	})
	require.NoError(t, err)

	mail := &mailbox{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := authhttp.NewRouter(access, "test", st, logger)
	router.AuthService = &service.AuthService{
		Store: st,
		Hasher: &cryptox.Argon2Hasher{Params: cryptox.Params{
			Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 16, SaltLength: 8,
		}},
		Tokens:   service.TokenIssuer{Signer: signer, Verification: verification},
		Notifier: mail,
		Config: service.AuthConfig{
			Issuer:   "catalogue-auth",
			Audience: "catalogue",
			AppURL:   "http://localhost:8080",
		},
	}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return authsdk.NewClient(srv.URL), mail
}

func requireAPIError(t *testing.T, err error, status int, code string) *authsdk.APIError {
	t.Helper()
	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

func signUpRequest(email string) authsdk.SignUpRequest {
	return authsdk.SignUpRequest{
		Username:        "alice",
		Email:           email,
		Password:        testPassword,
		ConfirmPassword: testPassword,
	}
}

func TestAccountLifecycle(t *testing.T) {
	t.Parallel()
	client, mail := newTestServer(t)
	ctx := context.Background()

	created, err := client.SignUp(ctx, signUpRequest("a@x.com"))
	require.NoError(t, err)
	require.Equal(t, "alice", created.Username)
	require.Equal(t, "a@x.com", created.Email)
	require.Equal(t, "Verification email sent", created.Message)

	_, err = client.SignIn(ctx, authsdk.SignInRequest{Email: "a@x.com", Password: testPassword})
	apiErr := requireAPIError(t, err, http.StatusBadRequest, authsdk.ErrorCodeBadRequest)
	require.Equal(t, "please verify your email first", apiErr.Description)

	_, err = client.SignUp(ctx, signUpRequest("a@x.com"))
	requireAPIError(t, err, http.StatusConflict, authsdk.ErrorCodeConflict)

	token := mail.token(t)
	verified, err := client.VerifyEmail(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "Email verified successfully", verified.Message)

	_, err = client.VerifyEmail(ctx, token)
	requireAPIError(t, err, http.StatusBadRequest, authsdk.ErrorCodeBadRequest)

	_, err = client.SignIn(ctx, authsdk.SignInRequest{Email: "a@x.com", Password: "Wr0ng!Pwd"})
	requireAPIError(t, err, http.StatusConflict, authsdk.ErrorCodeConflict)

	_, err = client.SignIn(ctx, authsdk.SignInRequest{Email: "nobody@x.com", Password: testPassword})
	requireAPIError(t, err, http.StatusNotFound, authsdk.ErrorCodeNotFound)

	tok, err := client.SignIn(ctx, authsdk.SignInRequest{Email: "a@x.com", Password: testPassword})
	require.NoError(t, err)
	require.Equal(t, "Bearer", tok.TokenType)
	require.EqualValues(t, (48 * time.Hour).Seconds(), tok.ExpiresIn)

	me, err := client.Me(ctx, tok.AccessToken)
	require.NoError(t, err)
	require.Equal(t, created.ID, me.ID)
	require.Equal(t, "active", me.State)

	_, err = client.UpdatePassword(ctx, tok.AccessToken, authsdk.UpdatePasswordRequest{
		OldPassword: testPassword, NewPassword: testPassword,
	})
	requireAPIError(t, err, http.StatusBadRequest, authsdk.ErrorCodeBadRequest)

	updated, err := client.UpdatePassword(ctx, tok.AccessToken, authsdk.UpdatePasswordRequest{
		OldPassword: testPassword, NewPassword: "N3w!Password",
	})
	require.NoError(t, err)
	require.Equal(t, "Password updated successfully", updated.Message)

	_, err = client.SignIn(ctx, authsdk.SignInRequest{Email: "a@x.com", Password: "N3w!Password"})
	require.NoError(t, err)
}

func TestPasswordRecovery(t *testing.T) {
	t.Parallel()
	client, mail := newTestServer(t)
	ctx := context.Background()

	_, err := client.SignUp(ctx, signUpRequest("a@x.com"))
	require.NoError(t, err)
	_, err = client.VerifyEmail(ctx, mail.token(t))
	require.NoError(t, err)

	sent, err := client.ForgotPassword(ctx, authsdk.ForgotPasswordRequest{Email: "a@x.com"})
	require.NoError(t, err)
	require.Equal(t, "OTP sent to your email", sent.Message)
	code := mail.code(t)

	ok, err := client.VerifyOTP(ctx, authsdk.VerifyOTPRequest{Email: "a@x.com", OTP: code})
	require.NoError(t, err)
	require.Equal(t, "OTP verified successfully", ok.Message)

	_, err = client.ResetPassword(ctx, authsdk.ResetPasswordRequest{
		Email: "a@x.com", OTP: code, NewPassword: "N3w!Password", ConfirmPassword: "N3w!Passw0rd",
	})
	apiErr := requireAPIError(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest)
	require.Contains(t, apiErr.Details, "confirm_password")

	reset, err := client.ResetPassword(ctx, authsdk.ResetPasswordRequest{
		Email: "a@x.com", OTP: code, NewPassword: "N3w!Password", ConfirmPassword: "N3w!Password",
	})
	require.NoError(t, err)
	require.Equal(t, "Password reset successfully", reset.Message)

	_, err = client.SignIn(ctx, authsdk.SignInRequest{Email: "a@x.com", Password: testPassword})
	requireAPIError(t, err, http.StatusConflict, authsdk.ErrorCodeConflict)
	_, err = client.SignIn(ctx, authsdk.SignInRequest{Email: "a@x.com", Password: "N3w!Password"})
	require.NoError(t, err)

	_, err = client.ResetPassword(ctx, authsdk.ResetPasswordRequest{
		Email: "a@x.com", OTP: code, NewPassword: "An0ther!Pwd", ConfirmPassword: "An0ther!Pwd",
	})
	apiErr = requireAPIError(t, err, http.StatusBadRequest, authsdk.ErrorCodeBadRequest)
	require.Equal(t, "please verify OTP first", apiErr.Description)
}

func TestSignUp_NotificationFailure(t *testing.T) {
	t.Parallel()
	client, mail := newTestServer(t)
	mail.fail(errors.New("provider down"))

	_, err := client.SignUp(context.Background(), signUpRequest("a@x.com"))
	apiErr := requireAPIError(t, err, http.StatusBadGateway, authsdk.ErrorCodeNotificationFailed)
	require.Contains(t, apiErr.Description, "account created")
}

func TestValidation(t *testing.T) {
	t.Parallel()
	client, _ := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   authsdk.SignUpRequest
		field string
	}{
		{"bad email", authsdk.SignUpRequest{Username: "alice", Email: "nope", Password: testPassword, ConfirmPassword: testPassword}, "email"},
		{"weak password", authsdk.SignUpRequest{Username: "alice", Email: "a@x.com", Password: "password", ConfirmPassword: "password"}, "password"},
		{"mismatch", authsdk.SignUpRequest{Username: "alice", Email: "a@x.com", Password: testPassword, ConfirmPassword: "Str0ng!Pwe"}, "confirm_password"},
		{"missing username", authsdk.SignUpRequest{Email: "a@x.com", Password: testPassword, ConfirmPassword: testPassword}, "username"},
		{"long username", authsdk.SignUpRequest{Username: strings.Repeat("a", 33), Email: "a@x.com", Password: testPassword, ConfirmPassword: testPassword}, "username"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := client.SignUp(ctx, tc.req)
			apiErr := requireAPIError(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest)
			require.Contains(t, apiErr.Details, tc.field)
		})
	}

	_, err := client.VerifyEmail(ctx, "")
	apiErr := requireAPIError(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest)
	require.Contains(t, apiErr.Details, "token")

	_, err = client.VerifyEmail(ctx, "not-a-jwt")
	requireAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken)
}

func TestSignUp_FreeFormUsername(t *testing.T) {
	t.Parallel()
	client, _ := newTestServer(t)
	ctx := context.Background()

	for i, name := range []string{"Jo", "a.b", "Zoë Ann"} {
		req := signUpRequest(fmt.Sprintf("user%d@x.com", i))
		req.Username = name

		res, err := client.SignUp(ctx, req)
		require.NoError(t, err, name)
		require.Equal(t, name, res.Username)
	}
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	t.Parallel()
	client, _ := newTestServer(t)
	ctx := context.Background()

	_, err := client.Me(ctx, "")
	requireAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken)

	_, err = client.UpdatePassword(ctx, "garbage", authsdk.UpdatePasswordRequest{
		OldPassword: testPassword, NewPassword: "N3w!Password",
	})
	requireAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	client, _ := newTestServer(t)
	ctx := context.Background()

	live, err := client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.NotNil(t, ready.Checks)
	require.Equal(t, "ok", ready.Checks.Database)
}

func TestIsStrongPassword(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"Str0ng!Pwd": true,
		"Sh0rt!":     false,
		"n0upper!!":  false,
		"N0LOWER!!":  false,
		"NoDigits!!": false,
		"N0Symbols1": false,
		"Ünïc0de€xx": true,
	}
	for pw, want := range tests {
		require.Equal(t, want, authhttp.IsStrongPassword(pw), pw)
	}
}

package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// SignUp registers a pending account and triggers the verification email.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResponse, error) {
	return call[SignUpResponse](ctx, c, http.MethodPost, "/v1/authentication/sign-up", "", req, http.StatusCreated)
}

// SignIn exchanges credentials of a verified account for an access token.
func (c *Client) SignIn(ctx context.Context, req SignInRequest) (*TokenResponse, error) {
	return call[TokenResponse](ctx, c, http.MethodPost, "/v1/authentication/sign-in", "", req, http.StatusOK)
}

// VerifyEmail redeems the token from a verification email.
func (c *Client) VerifyEmail(ctx context.Context, token string) (*MessageResponse, error) {
	path := "/v1/authentication/verify?token=" + url.QueryEscape(token)
	return call[MessageResponse](ctx, c, http.MethodGet, path, "", nil, http.StatusOK)
}

// UpdatePassword changes the password of the account behind accessToken.
func (c *Client) UpdatePassword(ctx context.Context, accessToken string, req UpdatePasswordRequest) (*MessageResponse, error) {
	return call[MessageResponse](ctx, c, http.MethodPatch, "/v1/authentication/password", accessToken, req, http.StatusOK)
}

// ForgotPassword emails a one time code to a verified account.
func (c *Client) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*MessageResponse, error) {
	return call[MessageResponse](ctx, c, http.MethodPost, "/v1/authentication/forgot-password", "", req, http.StatusOK)
}

// VerifyOTP checks a one time code without consuming it.
func (c *Client) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*MessageResponse, error) {
	return call[MessageResponse](ctx, c, http.MethodPost, "/v1/authentication/verify-otp", "", req, http.StatusOK)
}

// ResetPassword sets a new password using a one time code.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	return call[MessageResponse](ctx, c, http.MethodPost, "/v1/authentication/reset-password", "", req, http.StatusOK)
}

// Me returns the profile of the account behind accessToken.
func (c *Client) Me(ctx context.Context, accessToken string) (*AccountResponse, error) {
	return call[AccountResponse](ctx, c, http.MethodGet, "/v1/authentication/me", accessToken, nil, http.StatusOK)
}

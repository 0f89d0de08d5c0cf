package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shelfmark/catalogue/internal/auth/service"
	"github.com/shelfmark/catalogue/pkg/authsdk"
	"github.com/shelfmark/catalogue/pkg/httpx"
)

type AuthenticationHandler struct {
	AuthService *service.AuthService
	Validate    *validator.Validate
}

// HandleSignUp godoc
//
//	@Summary		Sign up
//	@Description	Creates a pending account and emails a verification link. The account cannot sign in until the link is opened.
//	@Description	If the email cannot be delivered the account still exists and 502 is returned; it is removed once the link expires.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignUpRequest			true	"Account details"
//	@Success		201		{object}	authsdk.SignUpResponse			"id, username, email, message"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse	"Invalid request body or validation failed"
//	@Failure		409		{object}	authsdk.ErrorResponse			"Email already exists"
//	@Failure		502		{object}	authsdk.ErrorResponse			"Account created but the verification email could not be sent"
//	@Failure		500		{object}	authsdk.ErrorResponse			"Internal server error"
//	@Router			/v1/authentication/sign-up [post].
func (h *AuthenticationHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignUpRequest
	if !h.bind(w, r, &req) {
		return
	}

	res, err := h.AuthService.SignUp(r.Context(), service.SignUpInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.SignUpResponse{
		ID:       res.ID,
		Username: res.Username,
		Email:    res.Email,
		Message:  res.Message,
	})
}

// HandleSignIn godoc
//
//	@Summary		Sign in
//	@Description	Exchanges the credentials of a verified account for a bearer access token.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignInRequest			true	"Credentials"
//	@Success		200		{object}	authsdk.TokenResponse			"access_token, token_type, expires_in"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Email not verified, or validation failed"
//	@Failure		404		{object}	authsdk.ErrorResponse			"User not found"
//	@Failure		409		{object}	authsdk.ErrorResponse			"Invalid password"
//	@Router			/v1/authentication/sign-in [post].
func (h *AuthenticationHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignInRequest
	if !h.bind(w, r, &req) {
		return
	}

	res, err := h.AuthService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		ExpiresIn:   res.ExpiresIn,
	})
}

// HandleVerifyEmail godoc
//
//	@Summary		Verify email
//	@Description	Redeems the token from a verification email and activates the account.
//	@Description	An expired token deletes the pending account it belongs to.
//	@Tags			Authentication
//	@Produce		json
//	@Param			token	query		string					true	"Verification token from the email link"
//	@Success		200		{object}	authsdk.MessageResponse	"Email verified successfully"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid, expired or already used token"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Token signature invalid"
//	@Failure		404		{object}	authsdk.ErrorResponse	"User not found"
//	@Router			/v1/authentication/verify [get].
func (h *AuthenticationHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ValidationErrorResponse{
			Code:    authsdk.ErrorCodeInvalidRequest,
			Message: "validation failed for some fields",
			Details: map[string]string{"token": "required"},
		})
		return
	}

	msg, err := h.AuthService.VerifyEmail(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: msg})
}

// HandleUpdatePassword godoc
//
//	@Summary		Update password
//	@Description	Changes the password of the authenticated account.
//	@Tags			Authentication
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.UpdatePasswordRequest	true	"Old and new password"
//	@Success		200		{object}	authsdk.MessageResponse			"Password updated successfully"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Old password incorrect or new password unchanged"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Invalid or missing access token"
//	@Failure		404		{object}	authsdk.ErrorResponse			"User not found"
//	@Router			/v1/authentication/password [patch].
func (h *AuthenticationHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	accountID, ok := httpx.AccountIDFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.UpdatePasswordRequest
	if !h.bind(w, r, &req) {
		return
	}

	msg, err := h.AuthService.UpdatePassword(r.Context(), accountID, req.OldPassword, req.NewPassword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: msg})
}

// HandleForgotPassword godoc
//
//	@Summary		Forgot password
//	@Description	Emails a six digit reset code to a verified account. The code is valid for 15 minutes.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ForgotPasswordRequest	true	"Account email"
//	@Success		200		{object}	authsdk.MessageResponse			"OTP sent to your email"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Email not verified"
//	@Failure		404		{object}	authsdk.ErrorResponse			"User not found"
//	@Failure		502		{object}	authsdk.ErrorResponse			"The email could not be sent"
//	@Router			/v1/authentication/forgot-password [post].
func (h *AuthenticationHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ForgotPasswordRequest
	if !h.bind(w, r, &req) {
		return
	}

	msg, err := h.AuthService.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: msg})
}

// HandleVerifyOTP godoc
//
//	@Summary		Verify OTP
//	@Description	Checks a reset code without consuming it.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyOTPRequest	true	"Email and code"
//	@Success		200		{object}	authsdk.MessageResponse		"OTP verified successfully"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Invalid or expired OTP"
//	@Failure		404		{object}	authsdk.ErrorResponse		"User not found"
//	@Router			/v1/authentication/verify-otp [post].
func (h *AuthenticationHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyOTPRequest
	if !h.bind(w, r, &req) {
		return
	}

	msg, err := h.AuthService.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: msg})
}

// HandleResetPassword godoc
//
//	@Summary		Reset password
//	@Description	Sets a new password. The reset code must be presented again and is consumed on success.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ResetPasswordRequest	true	"Email, code and new password"
//	@Success		200		{object}	authsdk.MessageResponse			"Password reset successfully"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Passwords do not match, or the OTP is missing, expired or wrong"
//	@Failure		404		{object}	authsdk.ErrorResponse			"User not found"
//	@Router			/v1/authentication/reset-password [post].
func (h *AuthenticationHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ResetPasswordRequest
	if !h.bind(w, r, &req) {
		return
	}

	msg, err := h.AuthService.ResetPassword(r.Context(), service.ResetPasswordInput{
		Email:           req.Email,
		OTP:             req.OTP,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: msg})
}

// HandleMe godoc
//
//	@Summary		Current account
//	@Description	Returns the profile of the account behind the access token.
//	@Tags			Authentication
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.AccountResponse	"id, username, email, state, created_at"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		404	{object}	authsdk.ErrorResponse	"User not found"
//	@Router			/v1/authentication/me [get].
func (h *AuthenticationHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := httpx.AccountIDFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	acc, err := h.AuthService.GetAccount(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.AccountResponse{
		ID:        acc.ID,
		Username:  acc.Username,
		Email:     acc.Email,
		State:     acc.State.String(),
		CreatedAt: acc.CreatedAt,
	})
}

// bind decodes and validates a JSON body, writing the error response itself
// when either step fails.
func (h *AuthenticationHandler) bind(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(w, r, v); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ErrorResponse{
			Error:            authsdk.ErrorCodeInvalidRequest,
			ErrorDescription: "Request body must be valid JSON",
		})
		return false
	}
	if err := h.Validate.Struct(v); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

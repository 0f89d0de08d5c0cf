/*
Package authsdk is a Go client for the catalogue authentication service.

Create a Client and call the endpoint methods directly:

	client := authsdk.NewClient("https://auth.example.com")

	// Register; the account stays pending until the emailed link is opened.
	acc, err := client.SignUp(ctx, authsdk.SignUpRequest{
		Username:        "alice",
		Email:           "a@x.com",
		Password:        "Str0ng!Pwd",
		ConfirmPassword: "Str0ng!Pwd",
	})

	// The token arrives in the verification email.
	_, err = client.VerifyEmail(ctx, token)

	tok, err := client.SignIn(ctx, authsdk.SignInRequest{Email: "a@x.com", Password: "Str0ng!Pwd"})
	me, err := client.Me(ctx, tok.AccessToken)

Password recovery is a three step flow:

	_, err = client.ForgotPassword(ctx, authsdk.ForgotPasswordRequest{Email: "a@x.com"})
	_, err = client.VerifyOTP(ctx, authsdk.VerifyOTPRequest{Email: "a@x.com", OTP: code})
	_, err = client.ResetPassword(ctx, authsdk.ResetPasswordRequest{
		Email:           "a@x.com",
		OTP:             code,
		NewPassword:     "N3w!Password",
		ConfirmPassword: "N3w!Password",
	})

# Error Handling

Non-2xx responses are returned as *APIError carrying the HTTP status, the
error code and the server's description:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeConflict {
		// email already registered, or wrong password on sign-in
	}
*/
package authsdk

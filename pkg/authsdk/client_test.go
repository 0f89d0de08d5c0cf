package authsdk_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shelfmark/catalogue/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestClient_SignInSendsJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/authentication/sign-in", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req authsdk.SignInRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "a@x.com", req.Email)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(authsdk.TokenResponse{AccessToken: "tok", TokenType: "Bearer", ExpiresIn: 60})
	}))
	t.Cleanup(srv.Close)

	resp, err := authsdk.NewClient(srv.URL+"/").SignIn(context.Background(), authsdk.SignInRequest{
		Email: "a@x.com", Password: "pw",
	})
	require.NoError(t, err)
	require.Equal(t, "tok", resp.AccessToken)
	require.EqualValues(t, 60, resp.ExpiresIn)
}

func TestClient_BearerAndQuery(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/authentication/me":
			require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(authsdk.AccountResponse{ID: "acc-1", State: "active"})
		case "/v1/authentication/verify":
			require.Equal(t, "a.b+c", r.URL.Query().Get("token"))
			_ = json.NewEncoder(w).Encode(authsdk.MessageResponse{Message: "ok"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	c := authsdk.NewClient(srv.URL)

	me, err := c.Me(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, "acc-1", me.ID)

	msg, err := c.VerifyEmail(context.Background(), "a.b+c")
	require.NoError(t, err)
	require.Equal(t, "ok", msg.Message)
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    any
		code    string
		details map[string]string
	}{
		{
			name:   "error response",
			status: http.StatusConflict,
			body:   authsdk.ErrorResponse{Error: authsdk.ErrorCodeConflict, ErrorDescription: "email already exists"},
			code:   authsdk.ErrorCodeConflict,
		},
		{
			name:   "validation response",
			status: http.StatusBadRequest,
			body: authsdk.ValidationErrorResponse{
				Code:    authsdk.ErrorCodeInvalidRequest,
				Message: "validation failed",
				Details: map[string]string{"email": "must be a valid email address"},
			},
			code:    authsdk.ErrorCodeInvalidRequest,
			details: map[string]string{"email": "must be a valid email address"},
		},
		{
			name:   "opaque body",
			status: http.StatusBadGateway,
			body:   "upstream exploded",
			code:   authsdk.ErrorCodeServerError,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				if s, ok := tc.body.(string); ok {
					_, _ = w.Write([]byte(s))
					return
				}
				_ = json.NewEncoder(w).Encode(tc.body)
			}))
			t.Cleanup(srv.Close)

			_, err := authsdk.NewClient(srv.URL).ForgotPassword(context.Background(), authsdk.ForgotPasswordRequest{Email: "a@x.com"})

			var apiErr *authsdk.APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tc.status, apiErr.StatusCode)
			require.Equal(t, tc.code, apiErr.Code)
			require.Equal(t, tc.details, apiErr.Details)
		})
	}
}

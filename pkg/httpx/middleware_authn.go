package httpx

import (
	"net/http"
	"strings"

	"github.com/shelfmark/catalogue/pkg/jwtx"
	"github.com/shelfmark/catalogue/pkg/slogx"
)

// AuthnMiddleware requires a valid bearer access token. The verifier decides
// what valid means (signature, expiry, issuer, audience, token type).
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			scheme, raw, ok := strings.Cut(authz, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := v.Verify(strings.TrimSpace(raw))
			if err != nil {
				log.Warn("jwt verify failed", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithAuth(ctx, claims)))
		})
	}
}

type bearerError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, bearerError{
		Error:            "invalid_token",
		ErrorDescription: desc,
	})
}

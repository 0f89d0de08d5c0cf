package httpx

import (
	"context"

	"github.com/shelfmark/catalogue/pkg/jwtx"
)

type ctxKey string

const CtxKeyAccountID ctxKey = "account_id"

// AccountIDFromContext returns the subject of the verified access token.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CtxKeyAccountID).(string)
	return id, ok && id != ""
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	return context.WithValue(ctx, CtxKeyAccountID, c.Subject)
}

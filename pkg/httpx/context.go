package httpx

import (
	"context"

	"github.com/tukcommunity/backend/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID    ctxKey = "user_id"
	CtxKeyAuthority ctxKey = "authority"
)

func contextWithAuth(ctx context.Context, userID int64, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, userID)
	ctx = context.WithValue(ctx, CtxKeyAuthority, c.Authority)
	return ctx
}

// UserIDFromContext returns the authenticated user's id.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(CtxKeyUserID).(int64)
	return v, ok
}

// AuthorityFromContext returns the authority claim of the access token.
func AuthorityFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(CtxKeyAuthority).(int)
	return v, ok
}

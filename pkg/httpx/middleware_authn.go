package httpx

import (
	"net/http"
	"strings"

	"github.com/tukcommunity/backend/pkg/jwtx"
	"github.com/tukcommunity/backend/pkg/slogx"
)

// Error bodies share the {"detail","code"} shape the clients already parse.
const (
	CodeNotAuthenticated = "not_authenticated"
	CodeTokenNotValid    = "token_not_valid"
	CodePermissionDenied = "permission_denied"

	DetailNotAuthenticated = "자격 인증데이터(authentication credentials)가 제공되지 않았습니다."
	DetailTokenNotValid    = "Given token not valid for any token type"
	DetailPermissionDenied = "이 작업을 수행할 권한(permission)이 없습니다."
)

// AuthnMiddleware requires a valid access token in the Authorization header
// and stores the caller's identity in the request context.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			scheme, raw, ok := strings.Cut(authz, " ")
			raw = strings.TrimSpace(raw)
			if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
				writeBearerError(w, CodeNotAuthenticated, DetailNotAuthenticated)
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("jwt verify failed", "err", err)
				writeBearerError(w, CodeTokenNotValid, DetailTokenNotValid)
				return
			}
			if err := claims.ValidateType(jwtx.TokenTypeAccess); err != nil {
				log.Warn("non access token presented", "token_type", claims.TokenType)
				writeBearerError(w, CodeTokenNotValid, DetailTokenNotValid)
				return
			}
			userID, err := claims.UserIDInt()
			if err != nil {
				writeBearerError(w, CodeTokenNotValid, DetailTokenNotValid)
				return
			}

			// Inject into context for downstream handlers.
			ctx = contextWithAuth(ctx, userID, claims)
			ctx = slogx.With(ctx, "user_id", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeBearerError(w http.ResponseWriter, code, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"detail": detail,
		"code":   code,
	})
}

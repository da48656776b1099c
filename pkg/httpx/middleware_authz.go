package httpx

import "net/http"

// RequireAuthority only lets callers through whose access token carries an
// authority of at least min. Must run after AuthnMiddleware.
func RequireAuthority(min int) Middleware {
	return RequirePermission(func(authority int) bool { return authority >= min })
}

// RequirePermission lets callers through when allow accepts the authority
// claim of their access token. Must run after AuthnMiddleware.
func RequirePermission(allow func(authority int) bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have, ok := AuthorityFromContext(r.Context())
			if !ok {
				writeBearerError(w, CodeNotAuthenticated, DetailNotAuthenticated)
				return
			}
			if !allow(have) {
				WriteJSON(w, http.StatusForbidden, map[string]string{
					"detail": DetailPermissionDenied,
					"code":   CodePermissionDenied,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

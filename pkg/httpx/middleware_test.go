package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tukcommunity/backend/pkg/httpx"
	"github.com/tukcommunity/backend/pkg/jwtx"
)

func newSigner(t *testing.T) *jwtx.HS256 {
	t.Helper()
	h, err := jwtx.NewHS256([]byte("middleware-secret"), "")
	require.NoError(t, err)
	return h
}

func sign(t *testing.T, h *jwtx.HS256, tokenType string, userID int64, authority int, ttl time.Duration) string {
	t.Helper()
	token, err := h.Sign(jwtx.NewClaims(tokenType, userID, authority, ttl, "", time.Now()))
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthnMiddleware(t *testing.T) {
	t.Parallel()
	h := newSigner(t)

	var gotUser int64
	var gotAuthority int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = httpx.UserIDFromContext(r.Context())
		gotAuthority, _ = httpx.AuthorityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := httpx.Chain(next, httpx.AuthnMiddleware(h))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"missing header", "", http.StatusUnauthorized, httpx.CodeNotAuthenticated},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, httpx.CodeNotAuthenticated},
		{"bearer without token", "Bearer ", http.StatusUnauthorized, httpx.CodeNotAuthenticated},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, httpx.CodeTokenNotValid},
		{"refresh token", "Bearer " + sign(t, h, jwtx.TokenTypeRefresh, 9, 0, time.Hour), http.StatusUnauthorized, httpx.CodeTokenNotValid},
		{"expired access token", "Bearer " + sign(t, h, jwtx.TokenTypeAccess, 9, 0, -time.Minute), http.StatusUnauthorized, httpx.CodeTokenNotValid},
		{"valid access token", "Bearer " + sign(t, h, jwtx.TokenTypeAccess, 9, 1, time.Minute), http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				require.Equal(t, tt.wantCode, decodeBody(t, rec)["code"])
				require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}

	require.Equal(t, int64(9), gotUser)
	require.Equal(t, 1, gotAuthority)
}

func TestRequireAuthority(t *testing.T) {
	t.Parallel()
	h := newSigner(t)

	handler := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
		httpx.AuthnMiddleware(h),
		httpx.RequireAuthority(1),
	)

	t.Run("standard user is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+sign(t, h, jwtx.TokenTypeAccess, 1, 0, time.Minute))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, httpx.CodePermissionDenied, decodeBody(t, rec)["code"])
	})

	t.Run("administrator passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+sign(t, h, jwtx.TokenTypeAccess, 2, 1, time.Minute))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("without authentication", func(t *testing.T) {
		rec := httptest.NewRecorder()
		httpx.RequireAuthority(1)(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequirePermission(t *testing.T) {
	t.Parallel()
	h := newSigner(t)

	onlyAuthority := func(want int) func(int) bool {
		return func(have int) bool { return have == want }
	}
	handler := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
		httpx.AuthnMiddleware(h),
		httpx.RequirePermission(onlyAuthority(0)),
	)

	for _, tt := range []struct {
		name      string
		authority int
		want      int
	}{
		{"allowed authority", 0, http.StatusOK},
		{"other authority", 1, http.StatusForbidden},
	} {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+sign(t, h, jwtx.TokenTypeAccess, 1, tt.authority, time.Minute))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("first"), mw("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	var dst struct {
		Refresh string `json:"refresh"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"refresh":"abc"}`))
	require.NoError(t, httpx.DecodeJSON(req, &dst))
	require.Equal(t, "abc", dst.Refresh)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	require.ErrorIs(t, httpx.DecodeJSON(req, &dst), httpx.ErrEmptyBody)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	err := httpx.DecodeJSON(req, &dst)
	require.Error(t, err)
	require.NotErrorIs(t, err, httpx.ErrEmptyBody)
}

func TestWriteJSONSetsNoCache(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	httpx.WriteJSON(rec, http.StatusCreated, map[string]string{"message": "ok"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Equal(t, "ok", decodeBody(t, rec)["message"])
}

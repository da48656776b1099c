package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func unsignedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "detail body",
			status: http.StatusUnauthorized,
			body:   `{"detail":"Given token not valid for any token type","code":"token_not_valid"}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
				require.Equal(t, ErrorCodeTokenNotValid, apiErr.Code)
			},
		},
		{
			name:   "field errors",
			status: http.StatusBadRequest,
			body:   `{"email":["이미 가입된 이메일입니다."]}`,
			check: func(t *testing.T, err error) {
				var verrs ValidationErrors
				require.True(t, errors.As(err, &verrs))
				require.True(t, verrs.Has("email"))
				require.False(t, verrs.Has("student_num"))
			},
		},
		{
			name:   "unknown body",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				require.Equal(t, ErrorCodeServerError, apiErr.Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseErrorResponse(&http.Response{StatusCode: tt.status}, []byte(tt.body))
			require.Error(t, err)
			tt.check(t, err)
		})
	}

	require.NoError(t, parseErrorResponse(&http.Response{StatusCode: http.StatusOK}, nil))
}

func TestAPIErrorWriteError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ErrNoActiveAccount.WriteError(rec)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, ErrorCodeNoActiveAccount, body["code"])
	require.NotEmpty(t, body["detail"])
}

func TestSessionRefreshesExpiredAccessToken(t *testing.T) {
	t.Parallel()

	fresh := unsignedToken(t, time.Now().Add(5*time.Minute))
	var refreshCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathRefresh:
			refreshCalls.Add(1)
			var req RefreshRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "refresh-1", req.Refresh)
			_ = json.NewEncoder(w).Encode(RefreshResponse{Access: fresh, Refresh: "refresh-2"})
		case PathRoles:
			require.Equal(t, "Bearer "+fresh, r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(ListRolesResponse{Roles: []RoleInfo{{RoleID: 1, Authority: 0}}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewSDKClient(srv.URL)
	session := client.NewSessionFromTokens(unsignedToken(t, time.Now().Add(-time.Minute)), "refresh-1")

	roles, err := session.ListRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles.Roles, 1)
	require.Equal(t, int32(1), refreshCalls.Load())
	require.Equal(t, "refresh-2", session.RefreshToken(), "rotated refresh token is kept")

	// The new access token is still valid, no second refresh.
	_, err = session.ListRoles(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), refreshCalls.Load())
}

func TestSessionLogoutClearsRefreshToken(t *testing.T) {
	t.Parallel()

	access := unsignedToken(t, time.Now().Add(5*time.Minute))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, PathLogout, r.URL.Path)
		require.Equal(t, "Bearer "+access, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(MessageResponse{Message: "로그아웃이 성공적으로 완료되었습니다."})
	}))
	defer srv.Close()

	session := NewSDKClient(srv.URL).NewSessionFromTokens(access, "refresh-1")
	require.NoError(t, session.Logout(context.Background()))
	require.Empty(t, session.RefreshToken())
	require.ErrorIs(t, session.Logout(context.Background()), ErrNoRefreshToken)
}

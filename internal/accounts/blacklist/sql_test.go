package blacklist_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tukcommunity/backend/internal/accounts/blacklist"
	"github.com/tukcommunity/backend/internal/accounts/domain"
	"github.com/tukcommunity/backend/internal/accounts/store"
	"github.com/tukcommunity/backend/internal/accounts/store/drivers/sqlite"
)

func newStore(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func createUser(t *testing.T, st store.Store) int64 {
	t.Helper()
	now := time.Now()
	id, err := st.Users().CreateUser(context.Background(), domain.User{
		RoleID:       1,
		PasswordHash: "x",
		Email:        "user@tukorea.ac.kr",
		StudentNum:   2020123456,
		Department:   "컴퓨터공학부",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	return id
}

func TestSQLRevoke(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStore(t)
	userID := createUser(t, st)
	bl := blacklist.NewSQL(st)

	req := blacklist.RevokeRequest{
		JTI:       "01HZX0000000000000000000AA",
		UserID:    userID,
		Token:     "header.payload.sig",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	revoked, err := bl.IsRevoked(ctx, req.JTI)
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, req))
	revoked, err = bl.IsRevoked(ctx, req.JTI)
	require.NoError(t, err)
	require.True(t, revoked)

	t.Run("revoking twice is fine", func(t *testing.T) {
		require.NoError(t, bl.Revoke(ctx, req))
	})

	t.Run("outstanding row is reused", func(t *testing.T) {
		tok, err := st.Tokens().GetOutstandingTokenByJTI(ctx, req.JTI)
		require.NoError(t, err)
		require.NotNil(t, tok.UserID)
		require.Equal(t, userID, *tok.UserID)
		require.Equal(t, req.Token, tok.Token)
	})
}

func TestSQLRevokeRecordedToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStore(t)
	userID := createUser(t, st)
	bl := blacklist.NewSQL(st)

	now := time.Now()
	_, err := st.Tokens().CreateOutstandingToken(ctx, domain.OutstandingToken{
		UserID:    &userID,
		JTI:       "recorded-jti",
		Token:     "t",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, bl.Revoke(ctx, blacklist.RevokeRequest{JTI: "recorded-jti", UserID: userID}))

	revoked, err := bl.IsRevoked(ctx, "recorded-jti")
	require.NoError(t, err)
	require.True(t, revoked)

	other, err := bl.IsRevoked(ctx, "other-jti")
	require.NoError(t, err)
	require.False(t, other)
}

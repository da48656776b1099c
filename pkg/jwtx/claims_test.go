package jwtx_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/tukcommunity/backend/pkg/jwtx"
)

func TestNewClaims(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	c := jwtx.NewClaims(jwtx.TokenTypeRefresh, 42, 1, time.Hour, "tuk", now)

	require.Equal(t, "42", c.Subject)
	require.Equal(t, "42", c.UserID)
	require.Equal(t, 1, c.Authority)
	require.Equal(t, jwtx.TokenTypeRefresh, c.TokenType)
	require.Equal(t, now.Add(time.Hour), c.Expiry())
	require.NotEmpty(t, c.ID)

	id, err := c.UserIDInt()
	require.NoError(t, err)
	require.Equal(t, int64(42), id)

	other := jwtx.NewClaims(jwtx.TokenTypeRefresh, 42, 1, time.Hour, "tuk", now)
	require.NotEqual(t, c.ID, other.ID, "jti must be unique per token")
}

func TestUserIDInt(t *testing.T) {
	t.Run("falls back to subject", func(t *testing.T) {
		c := jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "7"}}
		id, err := c.UserIDInt()
		require.NoError(t, err)
		require.Equal(t, int64(7), id)
	})

	t.Run("rejects non numeric ids", func(t *testing.T) {
		c := jwtx.Claims{UserID: "abc"}
		_, err := c.UserIDInt()
		require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
	})
}

func TestValidateType(t *testing.T) {
	c := jwtx.Claims{TokenType: jwtx.TokenTypeAccess}
	require.NoError(t, c.ValidateType(jwtx.TokenTypeAccess))
	require.ErrorIs(t, c.ValidateType(jwtx.TokenTypeRefresh), jwtx.ErrTokenType)
}

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "tuk"}}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("tuk"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateIssuer("other"), jwtx.ErrIssuer)
	})
}

func TestValidateExpiry(t *testing.T) {
	now := time.Now().UTC()

	t.Run("valid token", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		}}
		require.NoError(t, c.ValidateExpiry())
	})

	t.Run("expired token", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		}}
		require.ErrorIs(t, c.ValidateExpiry(), jwtx.ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			NotBefore: jwt.NewNumericDate(now.Add(time.Minute)),
		}}
		require.ErrorIs(t, c.ValidateExpiry(), jwtx.ErrNotYetValid)
	})
}

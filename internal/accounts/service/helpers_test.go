package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tukcommunity/backend/internal/accounts/blacklist"
	"github.com/tukcommunity/backend/internal/accounts/domain"
	"github.com/tukcommunity/backend/internal/accounts/store"
	"github.com/tukcommunity/backend/internal/accounts/store/drivers/sqlite"
	"github.com/tukcommunity/backend/pkg/jwtx"
	"golang.org/x/crypto/pbkdf2"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTokenService(t *testing.T, st store.Store) *TokenService {
	t.Helper()
	h, err := jwtx.NewHS256([]byte("service-test-secret"), "")
	require.NoError(t, err)
	return &TokenService{
		Store:                  st,
		Signer:                 h,
		Verifier:               h,
		Blacklist:              blacklist.NewSQL(st),
		AccessTTL:              jwtx.DefaultAccessTokenTTL,
		RefreshTTL:             jwtx.DefaultRefreshTokenTTL,
		BlacklistAfterRotation: true,
	}
}

func signup(t *testing.T, st store.Store, email, password, studentNum string) domain.User {
	t.Helper()
	svc := &SignupService{Store: st}
	u, err := svc.Signup(context.Background(), SignupInput{
		Email:      email,
		Password:   password,
		StudentNum: studentNum,
		Department: "컴퓨터공학부",
	})
	require.NoError(t, err)
	return u
}

// fixedClock returns a Now func that always reports t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// legacyHash builds a hash in the format Django's PBKDF2PasswordHasher writes.
func legacyHash(password, salt string, iters int) string {
	dk := pbkdf2.Key([]byte(password), []byte(salt), iters, sha256.Size, sha256.New)
	return "pbkdf2_sha256$" + strconv.Itoa(iters) + "$" + salt + "$" + base64.StdEncoding.EncodeToString(dk)
}

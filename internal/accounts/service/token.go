package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tukcommunity/backend/internal/accounts/blacklist"
	"github.com/tukcommunity/backend/internal/accounts/domain"
	"github.com/tukcommunity/backend/internal/accounts/store"
	"github.com/tukcommunity/backend/pkg/cryptox"
	"github.com/tukcommunity/backend/pkg/jwtx"
	"github.com/tukcommunity/backend/pkg/slogx"
)

var (
	// ErrAuthenticationFailed covers both unknown emails and wrong passwords.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrInvalidToken covers malformed, expired, wrongly typed and revoked
	// tokens.
	ErrInvalidToken = errors.New("token not valid")
)

// TokenService manages the access/refresh token lifecycle: issue at login,
// refresh (optionally rotating) and revoke at logout.
type TokenService struct {
	Store     store.Store
	Signer    jwtx.Signer
	Verifier  jwtx.Verifier
	Blacklist blacklist.Blacklist

	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// RotateRefreshTokens issues a new refresh token on every refresh.
	RotateRefreshTokens bool
	// BlacklistAfterRotation revokes the presented refresh token when a new
	// one is issued in its place.
	BlacklistAfterRotation bool

	Now func() time.Time
}

// Authenticate checks the credentials and issues a token pair. Failures
// never say whether the email exists.
func (s *TokenService) Authenticate(ctx context.Context, email, password string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	u, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Spend the same time as a real check.
			_ = cryptox.VerifyPassword(password, dummyHash())
			return domain.TokenPair{}, ErrAuthenticationFailed
		}
		return domain.TokenPair{}, err
	}

	if err := domain.CheckPassword(u, password); err != nil {
		if errors.Is(err, cryptox.ErrUnknownHash) {
			l.Warn("stored password hash has an unknown format", slog.Int64("user_id", u.ID))
		}
		return domain.TokenPair{}, ErrAuthenticationFailed
	}

	role, err := s.Store.Roles().GetRoleByID(ctx, u.RoleID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("load role: %w", err)
	}

	var pair domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		pair, err = s.issuePair(ctx, tx, u.ID, role.Authority, now)
		if err != nil {
			return err
		}

		if err := tx.Users().UpdateLastLogin(ctx, u.ID, now); err != nil {
			return fmt.Errorf("update last_login: %w", err)
		}

		if cryptox.NeedsRehash(u.PasswordHash) {
			hash, err := cryptox.HashPassword(password)
			if err != nil {
				return err
			}
			if err := tx.Users().UpdatePasswordHash(ctx, u.ID, hash, now); err != nil {
				return fmt.Errorf("upgrade password hash: %w", err)
			}
			l.Info("upgraded password hash", slog.Int64("user_id", u.ID))
		}
		return nil
	})
	if err != nil {
		l.Error("failed to issue tokens", slog.Int64("user_id", u.ID), slog.Any("error", err))
		return domain.TokenPair{}, err
	}

	l.Info("user logged in", slog.Int64("user_id", u.ID))
	return pair, nil
}

// Refresh exchanges a refresh token for a new access token. The returned
// pair only carries a refresh token when rotation is enabled.
func (s *TokenService) Refresh(ctx context.Context, refresh string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	claims, err := s.parseRefresh(refresh, true)
	if err != nil {
		return domain.TokenPair{}, err
	}

	revoked, err := s.Blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("blacklist lookup: %w", err)
	}
	if revoked {
		return domain.TokenPair{}, fmt.Errorf("%w: blacklisted", ErrInvalidToken)
	}

	userID, _ := claims.UserIDInt()
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, fmt.Errorf("%w: user no longer exists", ErrInvalidToken)
		}
		return domain.TokenPair{}, err
	}
	role, err := s.Store.Roles().GetRoleByID(ctx, u.RoleID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("load role: %w", err)
	}

	if !s.RotateRefreshTokens {
		access, err := s.Signer.Sign(jwtx.NewClaims(jwtx.TokenTypeAccess, u.ID, role.Authority, s.AccessTTL, s.Issuer, now))
		if err != nil {
			return domain.TokenPair{}, err
		}
		return domain.TokenPair{Access: access}, nil
	}

	// The presented token stays valid until its successor is stored.
	var pair domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		pair, err = s.issuePair(ctx, tx, u.ID, role.Authority, now)
		return err
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	if s.BlacklistAfterRotation {
		if err := s.Blacklist.Revoke(ctx, revokeRequest(claims, refresh)); err != nil {
			return domain.TokenPair{}, fmt.Errorf("blacklist rotated token: %w", err)
		}
	}

	l.Debug("refresh token rotated", slog.Int64("user_id", u.ID))
	return pair, nil
}

// Revoke blacklists a refresh token at logout. Only a token that is not a
// refresh token signed by us is an error; expired tokens need no entry
// and blacklist failures are logged, not returned.
func (s *TokenService) Revoke(ctx context.Context, refresh string) error {
	l := slogx.FromContext(ctx)

	claims, err := s.parseRefresh(refresh, false)
	if err != nil {
		return err
	}

	if claims.ValidateExpiryAt(s.now()) != nil {
		l.Debug("logout with an expired refresh token")
		return nil
	}

	if err := s.Blacklist.Revoke(ctx, revokeRequest(claims, refresh)); err != nil {
		l.Warn("failed to blacklist refresh token", slog.String("jti", claims.ID), slog.Any("error", err))
	}
	return nil
}

// parseRefresh verifies refresh and checks it is a refresh token for a
// numeric user id. With checkExpiry false only the signature is checked.
func (s *TokenService) parseRefresh(refresh string, checkExpiry bool) (jwtx.Claims, error) {
	if refresh == "" {
		return jwtx.Claims{}, fmt.Errorf("%w: empty", ErrInvalidToken)
	}

	var (
		claims jwtx.Claims
		err    error
	)
	if checkExpiry {
		claims, err = s.Verifier.Verify(refresh)
	} else {
		claims, err = s.Verifier.VerifySignature(refresh)
	}
	if err != nil {
		return jwtx.Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if err := claims.ValidateType(jwtx.TokenTypeRefresh); err != nil {
		return jwtx.Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if _, err := claims.UserIDInt(); err != nil {
		return jwtx.Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

// issuePair signs a new access/refresh pair and records the refresh token
// as outstanding using st, which is normally a transaction.
func (s *TokenService) issuePair(ctx context.Context, st store.Store, userID int64, authority int, now time.Time) (domain.TokenPair, error) {
	access, err := s.Signer.Sign(jwtx.NewClaims(jwtx.TokenTypeAccess, userID, authority, s.AccessTTL, s.Issuer, now))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshClaims := jwtx.NewClaims(jwtx.TokenTypeRefresh, userID, authority, s.RefreshTTL, s.Issuer, now)
	refresh, err := s.Signer.Sign(refreshClaims)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	_, err = st.Tokens().CreateOutstandingToken(ctx, domain.OutstandingToken{
		UserID:    &userID,
		JTI:       refreshClaims.ID,
		Token:     refresh,
		CreatedAt: now,
		ExpiresAt: refreshClaims.Expiry(),
	})
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("record outstanding token: %w", err)
	}

	return domain.TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func revokeRequest(claims jwtx.Claims, token string) blacklist.RevokeRequest {
	userID, _ := claims.UserIDInt()
	return blacklist.RevokeRequest{
		JTI:       claims.ID,
		UserID:    userID,
		Token:     token,
		ExpiresAt: claims.Expiry(),
	}
}

var dummyHash = sync.OnceValue(func() string {
	h, err := cryptox.HashPassword("tukcommunity-timing-equaliser")
	if err != nil {
		return ""
	}
	return h
})

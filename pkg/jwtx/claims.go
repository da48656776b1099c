package jwtx

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tukcommunity/backend/pkg/idx"
)

// Token types carried in the "token_type" claim. An access token can never be
// used where a refresh token is expected and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Default lifetimes, matching what the mobile and web clients were built
// against.
const (
	DefaultAccessTokenTTL  = 5 * time.Minute
	DefaultRefreshTokenTTL = 24 * time.Hour
)

// Claims are shared by access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims

	// TokenType is either "access" or "refresh".
	TokenType string `json:"token_type"`

	// UserID duplicates "sub"; older clients read the user from here.
	UserID string `json:"user_id"`

	// Authority of the user's role at issue time (0 user, 1 admin).
	Authority int `json:"authority"`
}

// NewClaims builds claims for tokenType issued at now.
func NewClaims(
	tokenType string,
	userID int64,
	authority int,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	sub := strconv.FormatInt(userID, 10)
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(now),
		},
		TokenType: tokenType,
		UserID:    sub,
		Authority: authority,
	}
}

// NewJTI returns a time ordered identifier for the "jti" claim.
func NewJTI(now time.Time) string {
	return idx.NewAt(now).String()
}

// UserIDInt parses the user id claim.
func (c *Claims) UserIDInt() (int64, error) {
	id := c.UserID
	if id == "" {
		id = c.Subject
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, ErrInvalidClaim
	}
	return n, nil
}

// Expiry returns the "exp" claim or the zero time.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ValidateType checks the token_type claim.
func (c *Claims) ValidateType(want string) error {
	if c.TokenType != want {
		return ErrTokenType
	}
	return nil
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryAt(time.Now())
}

func (c *Claims) ValidateExpiryAt(now time.Time) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}

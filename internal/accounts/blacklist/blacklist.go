// Package blacklist stores refresh tokens that must no longer be accepted.
// Entries only need to outlive the token they revoke.
package blacklist

import (
	"context"
	"time"
)

// Blacklist is the revocation capability used by the token service.
// Implementations must be safe for concurrent use and durable before Revoke
// returns.
type Blacklist interface {
	// IsRevoked reports whether the refresh token with jti was revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// Revoke blacklists a refresh token. Revoking twice is not an error.
	Revoke(ctx context.Context, req RevokeRequest) error
}

// RevokeRequest describes the refresh token being revoked.
type RevokeRequest struct {
	JTI       string
	UserID    int64
	Token     string // raw JWT, kept by the SQL backend for auditing
	ExpiresAt time.Time
}

package domain

import "time"

// TokenPair is what a successful login returns.
type TokenPair struct {
	Access  string
	Refresh string
}

// OutstandingToken records every refresh token issued so it can be
// blacklisted later. It maps onto token_blacklist_outstandingtoken.
type OutstandingToken struct {
	ID        int64     `db:"id"`
	UserID    *int64    `db:"user_id"` // nil once the user is deleted
	JTI       string    `db:"jti"`
	Token     string    `db:"token"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

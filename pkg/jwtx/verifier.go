package jwtx

import "errors"

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	// Verify checks signature, algorithm, issuer and expiry.
	Verify(token string) (Claims, error)

	// VerifySignature checks signature, algorithm and issuer but ignores the
	// time based claims. Used where an expired token is still meaningful,
	// e.g. logging out with a refresh token that already lapsed.
	VerifySignature(token string) (Claims, error)
}

// Signer is anything that can mint JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrEmptySecret = errors.New("jwtx: empty signing secret")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrTokenType    = errors.New("jwtx: wrong token type")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tukcommunity/backend/internal/accounts/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// Unique constraint violations on User, translated from driver errors so
	// a signup race ends in the same field error as the pre-insert check.
	ErrDuplicateEmail      = fmt.Errorf("%w: email", ErrAlreadyExists)
	ErrDuplicateStudentNum = fmt.Errorf("%w: student_num", ErrAlreadyExists)
)

// Store is the root data access interface. Concrete drivers (sqlite, mysql)
// implement this over a schema that is owned outside the application. It
// exposes sub-repositories to keep concerns tidy and to stop callers from
// starting transactions within transactions.
type Store interface {
	Users() Users
	Roles() Roles
	Tokens() Tokens

	// ApplyMigrations creates the schema. Only used for development databases
	// and tests; production schemas are managed by the DBA.
	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying connection pool.
	Close() error

	// Ping runs a trivial query against the database.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by user_id.
	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByEmail is used during login. The email must already be
	// normalised.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// EmailExists reports whether a user already registered email.
	EmailExists(ctx context.Context, email string) (bool, error)

	// StudentNumExists reports whether a user already registered studentNum.
	StudentNumExists(ctx context.Context, studentNum int64) (bool, error)

	// CreateUser inserts u and returns the generated user_id. Unique
	// violations come back as ErrDuplicateEmail or ErrDuplicateStudentNum.
	CreateUser(ctx context.Context, u domain.User) (int64, error)

	// UpdateLastLogin sets last_login.
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error

	// UpdatePasswordHash replaces the stored hash and bumps update_at.
	UpdatePasswordHash(ctx context.Context, userID int64, hash string, at time.Time) error
}

type Roles interface {
	// GetRoleByID returns a role by role_id.
	GetRoleByID(ctx context.Context, id int64) (domain.Role, error)

	// GetRoleByAuthority returns the role with the lowest role_id holding
	// authority.
	GetRoleByAuthority(ctx context.Context, authority int) (domain.Role, error)

	// ListRoles returns every role ordered by role_id.
	ListRoles(ctx context.Context) ([]domain.Role, error)
}

type Tokens interface {
	// CreateOutstandingToken records an issued refresh token and returns its id.
	CreateOutstandingToken(ctx context.Context, t domain.OutstandingToken) (int64, error)

	// GetOutstandingTokenByJTI returns the outstanding record for jti.
	GetOutstandingTokenByJTI(ctx context.Context, jti string) (domain.OutstandingToken, error)

	// BlacklistToken marks an outstanding token as blacklisted. Blacklisting
	// the same token twice returns ErrAlreadyExists.
	BlacklistToken(ctx context.Context, tokenID int64, at time.Time) error

	// IsBlacklisted reports whether the token with jti has been blacklisted.
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// DeleteExpiredTokens removes outstanding tokens (and their blacklist
	// rows) that expired before now. Returns the number of outstanding
	// tokens removed.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

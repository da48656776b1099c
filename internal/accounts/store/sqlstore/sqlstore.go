// Package sqlstore implements store.Store over database/sql with sqlx. The
// queries are plain SQL understood by both SQLite and MySQL; the engine
// specific parts live behind Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tukcommunity/backend/internal/accounts/store"
)

// Dialect captures what differs between database engines.
type Dialect interface {
	// Name is the sqlx driver name, e.g. "sqlite" or "mysql".
	Name() string

	// UniqueViolation returns the column or key name whose unique
	// constraint err violated.
	UniqueViolation(err error) (column string, ok bool)

	// Migrate applies the embedded schema migrations.
	Migrate(db *sql.DB) error
}

type Store struct {
	db      *sqlx.DB
	dialect Dialect
}

// New wraps an open connection pool.
func New(db *sql.DB, d Dialect) *Store {
	return &Store{
		db:      sqlx.NewDb(db, d.Name()),
		dialect: d,
	}
}

func (s *Store) Close() error { return s.db.Close() }

// Ping runs SELECT 1, which unlike PingContext also catches a server that
// accepts connections but cannot answer queries.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `SELECT 1`)
	return err
}

func (s *Store) ApplyMigrations() error {
	return s.dialect.Migrate(s.db.DB)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txStore{tx: tx, dialect: s.dialect}, nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// Ensure rollback is called if we panic or return early with error
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err // rollback happens in defer
	}

	return tx.Commit()
}

func (s *Store) Users() store.Users   { return &usersRepo{q: s.db, dialect: s.dialect} }
func (s *Store) Roles() store.Roles   { return &rolesRepo{q: s.db} }
func (s *Store) Tokens() store.Tokens { return &tokensRepo{q: s.db, dialect: s.dialect} }

type txStore struct {
	tx      *sqlx.Tx
	dialect Dialect
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // the outer pool stays open

func (t *txStore) Ping(ctx context.Context) error {
	_, err := t.tx.ExecContext(ctx, `SELECT 1`)
	return err
}

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	// Nested tx not supported
	return sql.ErrTxDone
}

// ApplyMigrations is a no-op; migrations run before any transaction starts.
func (t *txStore) ApplyMigrations() error { return nil }

func (t *txStore) Users() store.Users   { return &usersRepo{q: t.tx, dialect: t.dialect} }
func (t *txStore) Roles() store.Roles   { return &rolesRepo{q: t.tx} }
func (t *txStore) Tokens() store.Tokens { return &tokensRepo{q: t.tx, dialect: t.dialect} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// dbTime normalises timestamps before they are written. Both engines store
// DATETIME with second precision and SQLite compares them as text, so every
// value goes in as UTC truncated to the second.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

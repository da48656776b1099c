// Package sqlite opens a store.Store backed by modernc.org/sqlite. It is used
// for local development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/tukcommunity/backend/internal/accounts/store/sqlstore"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// NewStore opens dsn (a file path or ":memory:").
func NewStore(dsn string) (*sqlstore.Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One connection: an in-memory database is private to its connection,
	// and SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return sqlstore.New(db, Dialect{}), nil
}

// Dialect implements sqlstore.Dialect for SQLite.
type Dialect struct{}

func (Dialect) Name() string { return "sqlite" }

// UniqueViolation parses "UNIQUE constraint failed: User.email".
func (Dialect) UniqueViolation(err error) (string, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) || se.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return "", false
	}

	const marker = "UNIQUE constraint failed: "
	msg := se.Error()
	i := strings.Index(msg, marker)
	if i < 0 {
		return "", true
	}
	column := msg[i+len(marker):]
	if j := strings.IndexAny(column, " ,"); j >= 0 {
		column = column[:j]
	}
	if j := strings.LastIndex(column, "."); j >= 0 {
		column = column[j+1:]
	}
	return column, true
}

func (Dialect) Migrate(db *sql.DB) error {
	return applyMigrations(db)
}

// Package mysql opens a store.Store backed by MySQL, the production database.
package mysql

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/tukcommunity/backend/internal/accounts/store/sqlstore"
)

// erDupEntry is MySQL's ER_DUP_ENTRY.
const erDupEntry = 1062

type Options struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Config builds the driver configuration. Times are read and written as UTC
// and UPDATE reports matched rather than changed rows.
func (o Options) Config() *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
	cfg.DBName = o.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	return cfg
}

// NewStore opens a connection pool. It does not contact the server; the
// first query or Ping does.
func NewStore(opts Options) (*sqlstore.Store, error) {
	cfg := opts.Config()
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql: connector: %w", err)
	}

	db := sql.OpenDB(connector)
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	return sqlstore.New(db, &Dialect{cfg: cfg}), nil
}

// Dialect implements sqlstore.Dialect for MySQL.
type Dialect struct {
	cfg *mysql.Config
}

func (*Dialect) Name() string { return "mysql" }

// UniqueViolation parses "Duplicate entry 'x' for key 'User.email'". Older
// servers omit the table prefix.
func (*Dialect) UniqueViolation(err error) (string, bool) {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != erDupEntry {
		return "", false
	}

	const marker = "for key '"
	i := strings.LastIndex(me.Message, marker)
	if i < 0 {
		return "", true
	}
	key := strings.TrimSuffix(me.Message[i+len(marker):], "'")
	if j := strings.LastIndex(key, "."); j >= 0 {
		key = key[j+1:]
	}
	return key, true
}

// Migrate runs the embedded migrations over a dedicated connection with
// multi statement support, leaving the application pool untouched.
func (d *Dialect) Migrate(*sql.DB) error {
	cfg := d.cfg.Clone()
	cfg.MultiStatements = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return err
	}
	db := sql.OpenDB(connector)
	return applyMigrations(db)
}

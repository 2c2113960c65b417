// Package store persists respondent logs and reconciled answers, and
// extracts respondent rows from the source table. Postgres, SQLite and
// Oracle are supported.
package store

import (
	"context"
	"database/sql"
	"regexp"
	"strconv"
	"strings"

	go_ora "github.com/sijms/go-ora/v2"

	// Database drivers.
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/agentstation/surveysync/pkg/errors"
	"github.com/agentstation/surveysync/pkg/logging"
)

// Dialect identifies the SQL flavour of a connection.
type Dialect string

// Supported dialects.
const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
	Oracle   Dialect = "oracle"
)

// ParseDialect maps a driver name or alias to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "oracle", "ora", "go-ora":
		return Oracle, nil
	}
	return "", errors.NewValidationError("db_driver", driver, "unsupported database driver")
}

// Placeholder returns the bind marker for the n-th (1-based) parameter.
func (d Dialect) Placeholder(n int) string {
	switch d {
	case Postgres:
		return "$" + strconv.Itoa(n)
	case Oracle:
		return ":" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// binder hands out placeholders in order.
type binder struct {
	dialect Dialect
	args    []any
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

// Config selects and configures a database.
type Config struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// DB is a database handle that knows its dialect.
type DB struct {
	*sql.DB
	dialect Dialect
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, errors.NewValidationError("db_dsn", nil, "database DSN is required")
	}

	db, err := sql.Open(string(dialect), cfg.DSN)
	if err != nil {
		return nil, errors.WrapResource("open", "database", string(dialect), err)
	}
	switch {
	case dialect == SQLite:
		// A single writer avoids SQLITE_BUSY under concurrent collection.
		db.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("ping", "database", string(dialect), err)
	}

	logging.FromContext(ctx).Debug().Str("driver", string(dialect)).Msg("Database connected")
	return &DB{DB: db, dialect: dialect}, nil
}

// Dialect returns the SQL dialect of the connection.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

func (db *DB) binder() *binder {
	return &binder{dialect: db.dialect}
}

// OracleDSN builds a go-ora connection URL.
func OracleDSN(host string, port int, service, user, password string) string {
	return go_ora.BuildUrl(host, port, service, user, password, nil)
}

var identifierRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*)?$`)

// ValidateIdentifier rejects table and column names that would need quoting.
// Names are interpolated into SQL, so only plain identifiers are accepted.
func ValidateIdentifier(kind, name string) error {
	if !identifierRE.MatchString(name) {
		return errors.NewValidationError(kind, name, "invalid SQL identifier")
	}
	return nil
}

func baseName(table string) string {
	if i := strings.LastIndexByte(table, '.'); i >= 0 {
		return table[i+1:]
	}
	return table
}

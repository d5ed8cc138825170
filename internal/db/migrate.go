package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "embed"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Open connects to the database and verifies the connection.  PostgreSQL is
// the production engine; SQLite is used for local runs and tests.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if driver == DriverSQLite {
		dsn = withImmediateTx(dsn)
	}
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == DriverSQLite {
		// A single writer avoids SQLITE_BUSY under concurrent exchanges.
		conn.SetMaxOpenConns(1)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: ping database: %w", ErrUnavailable, err)
	}
	return conn, nil
}

// withImmediateTx makes SQLite take the write lock at BEGIN, so
// transactions from separate processes queue instead of both reading first.
func withImmediateTx(dsn string) string {
	if strings.Contains(dsn, "_txlock=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_txlock=immediate"
	}
	return dsn + "?_txlock=immediate"
}

// Migrate applies the database schema to the given database. It executes the
// statements in schema.sql which create tables and indexes if they do not
// already exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

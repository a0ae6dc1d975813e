// Package pgconn opens database connections for the supported drivers.
package pgconn

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open opens a database connection and verifies it with a ping.
// Postgres URLs without an sslmode get sslmode=disable.
func Open(ctx context.Context, driver, dbURL string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres:
		dbURL = ensureSSLMode(dbURL)
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dbURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

// EnsureSSLMode adds sslmode=disable if no sslmode is specified in the URL.
func EnsureSSLMode(dbURL string) string {
	return ensureSSLMode(dbURL)
}

func ensureSSLMode(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return dbURL
	}

	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "disable")
		u.RawQuery = q.Encode()
		return u.String()
	}

	return dbURL
}

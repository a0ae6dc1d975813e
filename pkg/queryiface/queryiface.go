// Package queryiface implements bulk row operations over database/sql.
//
// It is the database-access collaborator handed to seeders: callers name a
// table and pass rows or a filter, and QueryInterface builds the statement for
// the configured dialect.
package queryiface

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

var (
	// ErrColumnMismatch is returned when rows passed to BulkInsert do not all
	// carry the same set of columns.
	ErrColumnMismatch = errors.New("queryiface: rows have different columns")

	// ErrNoColumns is returned when BulkInsert receives a row with no columns.
	ErrNoColumns = errors.New("queryiface: row has no columns")
)

// Row maps column names to values.
type Row map[string]any

// Where is an equality filter. Keys are column names. A nil or empty Where
// matches every row.
type Where map[string]any

// Options tunes a single bulk operation.
type Options struct {
	// Timeout bounds the statement. Zero means the caller's context decides.
	Timeout time.Duration
}

// Execer is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect controls placeholder syntax.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// DialectFor maps a database/sql driver name to a Dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("queryiface: unsupported driver %q", driver)
	}
}

func (d Dialect) placeholder(n int) string {
	if d == SQLite {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// QueryInterface runs bulk statements against an Execer.
type QueryInterface struct {
	exec    Execer
	dialect Dialect
}

// New returns a QueryInterface bound to exec.
func New(exec Execer, dialect Dialect) *QueryInterface {
	return &QueryInterface{exec: exec, dialect: dialect}
}

// Dialect returns the dialect statements are built for.
func (q *QueryInterface) Dialect() Dialect {
	return q.dialect
}

// BulkInsert inserts rows into table with a single multi-row INSERT.
// Inserting zero rows is a no-op.
func (q *QueryInterface) BulkInsert(ctx context.Context, table string, rows []Row, opts Options) error {
	query, args, err := q.buildInsert(table, rows)
	if err != nil {
		return err
	}
	if query == "" {
		return nil
	}

	ctx, cancel := withTimeout(ctx, opts.Timeout)
	defer cancel()

	_, err = q.exec.ExecContext(ctx, query, args...)
	return err
}

// BulkDelete deletes the rows of table matching where. A nil where deletes
// every row.
func (q *QueryInterface) BulkDelete(ctx context.Context, table string, where Where, opts Options) error {
	clause, args := q.buildWhere(where, 1)
	query := "DELETE FROM " + pq.QuoteIdentifier(table) + clause

	ctx, cancel := withTimeout(ctx, opts.Timeout)
	defer cancel()

	_, err := q.exec.ExecContext(ctx, query, args...)
	return err
}

// Count returns the number of rows in table matching where.
func (q *QueryInterface) Count(ctx context.Context, table string, where Where) (int64, error) {
	clause, args := q.buildWhere(where, 1)
	query := "SELECT COUNT(*) FROM " + pq.QuoteIdentifier(table) + clause

	var n int64
	if err := q.exec.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting rows in %s: %w", table, err)
	}
	return n, nil
}

func (q *QueryInterface) buildInsert(table string, rows []Row) (string, []any, error) {
	if len(rows) == 0 {
		return "", nil, nil
	}

	columns := sortedKeys(rows[0])
	if len(columns) == 0 {
		return "", nil, ErrNoColumns
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pq.QuoteIdentifier(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("row %d: %w", i, ErrColumnMismatch)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, c := range columns {
			v, ok := row[c]
			if !ok {
				return "", nil, fmt.Errorf("row %d missing %q: %w", i, c, ErrColumnMismatch)
			}
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, v)
			b.WriteString(q.dialect.placeholder(len(args)))
		}
		b.WriteByte(')')
	}

	return b.String(), args, nil
}

// buildWhere renders where as " WHERE ..." with placeholders numbered from
// start. It returns an empty clause for an empty filter.
func (q *QueryInterface) buildWhere(where Where, start int) (string, []any) {
	if len(where) == 0 {
		return "", nil
	}

	keys := sortedKeys(where)
	conds := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		conds[i] = pq.QuoteIdentifier(k) + " = " + q.dialect.placeholder(start+i)
		args[i] = where[k]
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Package migrate runs the demo-user seeder as a versioned goose migration so
// that applying it twice is a no-op.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"github.com/sirupsen/logrus"

	"github.com/lucasefe/demoseed/pkg/pgconn"
	"github.com/lucasefe/demoseed/pkg/queryiface"
	"github.com/lucasefe/demoseed/pkg/seed"
)

const (
	// SeedVersion is the goose version the demo-user seed is registered under.
	SeedVersion int64 = 20240531192547

	// SeedName names the seed in status output.
	SeedName = "demo_user"

	// DefaultTableName records applied seeds, separately from goose_db_version.
	DefaultTableName = "demoseed_seed_version"
)

// SeedStatus represents the status of the seed migration
type SeedStatus struct {
	Version   int64
	Name      string
	Applied   bool
	AppliedAt *time.Time
}

// Migrator applies and reverts the seed using goose
type Migrator struct {
	driver    string
	tableName string
	verbose   bool
	timeout   time.Duration
	logger    *logrus.Logger
	seeder    *seed.Seeder
}

// Option configures a Migrator
type Option func(*Migrator)

// WithVerbose enables goose's verbose output
func WithVerbose(v bool) Option {
	return func(m *Migrator) {
		m.verbose = v
	}
}

// WithLogger sets the logger. goose output is routed through it as well.
func WithLogger(l *logrus.Logger) Option {
	return func(m *Migrator) {
		m.logger = l
	}
}

// WithTableName overrides DefaultTableName.
func WithTableName(name string) Option {
	return func(m *Migrator) {
		m.tableName = name
	}
}

// WithTimeout bounds each bulk statement issued by the seeder.
func WithTimeout(d time.Duration) Option {
	return func(m *Migrator) {
		m.timeout = d
	}
}

// WithSeeder replaces the default seeder.
func WithSeeder(s *seed.Seeder) Option {
	return func(m *Migrator) {
		m.seeder = s
	}
}

// New creates a new Migrator for the given driver ("postgres" or "sqlite").
func New(driver string, opts ...Option) *Migrator {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	m := &Migrator{
		driver:    driver,
		tableName: DefaultTableName,
		logger:    discard,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.seeder == nil {
		m.seeder = seed.New(seed.WithLogger(m.logger))
	}
	return m
}

// Up applies the seed if it has not been applied yet. It reports whether the
// seed ran.
func (m *Migrator) Up(ctx context.Context, dbURL string) (bool, error) {
	db, err := pgconn.Open(ctx, m.driver, dbURL)
	if err != nil {
		return false, err
	}
	defer db.Close()

	return m.UpDB(ctx, db)
}

// UpDB is Up over an already open connection.
func (m *Migrator) UpDB(ctx context.Context, db *sql.DB) (bool, error) {
	p, err := m.provider(db)
	if err != nil {
		return false, err
	}

	results, err := p.Up(ctx)
	if err != nil {
		return false, fmt.Errorf("applying seed: %w", err)
	}
	for _, r := range results {
		m.logger.WithFields(logrus.Fields{
			"version":  r.Source.Version,
			"duration": r.Duration,
		}).Info("seed applied")
	}
	return len(results) > 0, nil
}

// Down reverts the seed if it is applied. It reports whether the seed was
// reverted.
func (m *Migrator) Down(ctx context.Context, dbURL string) (bool, error) {
	db, err := pgconn.Open(ctx, m.driver, dbURL)
	if err != nil {
		return false, err
	}
	defer db.Close()

	return m.DownDB(ctx, db)
}

// DownDB is Down over an already open connection.
func (m *Migrator) DownDB(ctx context.Context, db *sql.DB) (bool, error) {
	p, err := m.provider(db)
	if err != nil {
		return false, err
	}

	st, err := m.status(ctx, p)
	if err != nil {
		return false, err
	}
	if !st.Applied {
		m.logger.Info("seed not applied, nothing to revert")
		return false, nil
	}

	r, err := p.Down(ctx)
	if err != nil {
		return false, fmt.Errorf("reverting seed: %w", err)
	}
	m.logger.WithFields(logrus.Fields{
		"version":  r.Source.Version,
		"duration": r.Duration,
	}).Info("seed reverted")
	return true, nil
}

// Status reports whether the seed is applied.
func (m *Migrator) Status(ctx context.Context, dbURL string) (SeedStatus, error) {
	db, err := pgconn.Open(ctx, m.driver, dbURL)
	if err != nil {
		return SeedStatus{}, err
	}
	defer db.Close()

	return m.StatusDB(ctx, db)
}

// StatusDB is Status over an already open connection.
func (m *Migrator) StatusDB(ctx context.Context, db *sql.DB) (SeedStatus, error) {
	p, err := m.provider(db)
	if err != nil {
		return SeedStatus{}, err
	}
	return m.status(ctx, p)
}

func (m *Migrator) status(ctx context.Context, p *goose.Provider) (SeedStatus, error) {
	statuses, err := p.Status(ctx)
	if err != nil {
		return SeedStatus{}, fmt.Errorf("reading seed status: %w", err)
	}

	st := SeedStatus{Version: SeedVersion, Name: SeedName}
	for _, s := range statuses {
		if s.Source.Version != SeedVersion || s.State != goose.StateApplied {
			continue
		}
		appliedAt := s.AppliedAt
		st.Applied = true
		st.AppliedAt = &appliedAt
	}
	return st, nil
}

func (m *Migrator) provider(db *sql.DB) (*goose.Provider, error) {
	dialect, err := m.storeDialect()
	if err != nil {
		return nil, err
	}
	store, err := database.NewStore(dialect, m.tableName)
	if err != nil {
		return nil, fmt.Errorf("creating version store: %w", err)
	}

	qdialect, err := queryiface.DialectFor(m.driver)
	if err != nil {
		return nil, err
	}

	migration := goose.NewGoMigration(SeedVersion,
		&goose.GoFunc{RunTx: func(ctx context.Context, tx *sql.Tx) error {
			return m.seeder.Up(ctx, m.handle(tx, qdialect))
		}},
		&goose.GoFunc{RunTx: func(ctx context.Context, tx *sql.Tx) error {
			return m.seeder.Down(ctx, m.handle(tx, qdialect))
		}},
	)

	p, err := goose.NewProvider("", db, nil,
		goose.WithStore(store),
		goose.WithDisableGlobalRegistry(true),
		goose.WithGoMigrations(migration),
		goose.WithVerbose(m.verbose),
		goose.WithLogger(m.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("creating goose provider: %w", err)
	}
	return p, nil
}

func (m *Migrator) handle(tx *sql.Tx, d queryiface.Dialect) seed.Handle {
	q := queryiface.New(tx, d)
	if m.timeout <= 0 {
		return q
	}
	return timeoutHandle{q: q, timeout: m.timeout}
}

func (m *Migrator) storeDialect() (database.Dialect, error) {
	switch m.driver {
	case pgconn.DriverPostgres:
		return database.DialectPostgres, nil
	case pgconn.DriverSQLite:
		return database.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported driver %q", m.driver)
	}
}

// timeoutHandle applies a fixed statement timeout to every bulk operation.
type timeoutHandle struct {
	q       *queryiface.QueryInterface
	timeout time.Duration
}

func (h timeoutHandle) BulkInsert(ctx context.Context, table string, rows []queryiface.Row, opts queryiface.Options) error {
	if opts.Timeout == 0 {
		opts.Timeout = h.timeout
	}
	return h.q.BulkInsert(ctx, table, rows, opts)
}

func (h timeoutHandle) BulkDelete(ctx context.Context, table string, where queryiface.Where, opts queryiface.Options) error {
	if opts.Timeout == 0 {
		opts.Timeout = h.timeout
	}
	return h.q.BulkDelete(ctx, table, where, opts)
}

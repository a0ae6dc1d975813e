// Package seed holds the demo-user fixture and the Seeder that applies and
// reverts it.
package seed

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lucasefe/demoseed/pkg/queryiface"
)

// Table is the collection the fixture is written to.
const Table = "Users"

// User is one fixture record.
type User struct {
	Name  string
	Email string
}

// DemoUsers is the fixture inserted by Up.
var DemoUsers = []User{
	{Name: "John Doe", Email: "john.doe@example.com"},
	{Name: "Jane Doe", Email: "jane.doe@example.com"},
}

// Handle is the database access a Seeder needs.
type Handle interface {
	BulkInsert(ctx context.Context, table string, rows []queryiface.Row, opts queryiface.Options) error
	BulkDelete(ctx context.Context, table string, where queryiface.Where, opts queryiface.Options) error
}

// Seeder applies and reverts the demo-user fixture.
type Seeder struct {
	now    func() time.Time
	logger logrus.FieldLogger
}

// Option configures a Seeder
type Option func(*Seeder)

// WithClock sets the time source used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Seeder) {
		s.now = now
	}
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Seeder) {
		s.logger = l
	}
}

// New creates a new Seeder with the given options
func New(opts ...Option) *Seeder {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Seeder{
		now:    time.Now,
		logger: discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Up inserts DemoUsers into Table in one bulk insert. Both timestamps of
// every row come from a single clock reading. Errors from h are returned
// as is.
func (s *Seeder) Up(ctx context.Context, h Handle) error {
	now := s.now()

	rows := make([]queryiface.Row, len(DemoUsers))
	for i, u := range DemoUsers {
		rows[i] = queryiface.Row{
			"name":      u.Name,
			"email":     u.Email,
			"createdAt": now,
			"updatedAt": now,
		}
	}

	s.logger.WithFields(logrus.Fields{"table": Table, "rows": len(rows)}).Debug("inserting demo users")
	return h.BulkInsert(ctx, Table, rows, queryiface.Options{})
}

// Down deletes every row of Table, including rows Up did not insert.
// Errors from h are returned as is.
func (s *Seeder) Down(ctx context.Context, h Handle) error {
	s.logger.WithField("table", Table).Debug("deleting all rows")
	return h.BulkDelete(ctx, Table, nil, queryiface.Options{})
}

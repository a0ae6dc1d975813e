// Package dbml documents the seeded schema in DBML.
package dbml

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/lucasefe/dbml"

	"github.com/lucasefe/demoseed/pkg/pgconn"
)

// Generator handles DBML generation from PostgreSQL databases
type Generator struct {
	stdout io.Writer
}

// Options configures DBML generation
type Options struct {
	Output        string   // Output file (empty = stdout)
	Schemas       []string // Schemas to include (empty = default)
	ExcludeTables []string // Tables to exclude, in addition to the seed version table
	VersionTable  string   // Seed version table, always excluded
}

// New creates a new Generator writing to w when no output file is set.
func New(w io.Writer) *Generator {
	if w == nil {
		w = os.Stdout
	}
	return &Generator{stdout: w}
}

// Generate creates a DBML document from the database schema
func (g *Generator) Generate(ctx context.Context, dbURL string, opts Options) error {
	result, err := g.GenerateString(ctx, dbURL, opts)
	if err != nil {
		return err
	}

	if opts.Output == "" {
		_, err := io.WriteString(g.stdout, result)
		return err
	}

	return os.WriteFile(opts.Output, []byte(result), 0644)
}

// GenerateString generates DBML and returns it as a string
func (g *Generator) GenerateString(ctx context.Context, dbURL string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	out, err := dbml.GenerateFromConnectionString(pgconn.EnsureSSLMode(dbURL), buildConfig(opts))
	if err != nil {
		return "", fmt.Errorf("generating dbml: %w", err)
	}
	return out, nil
}

func buildConfig(opts Options) *dbml.Config {
	exclude := append([]string(nil), opts.ExcludeTables...)
	if opts.VersionTable != "" {
		exclude = append(exclude, opts.VersionTable)
	}
	return &dbml.Config{
		Schemas:       opts.Schemas,
		ExcludeTables: exclude,
	}
}

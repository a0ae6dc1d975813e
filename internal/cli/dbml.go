package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucasefe/demoseed/pkg/dbml"
	"github.com/lucasefe/demoseed/pkg/pgconn"
)

func newDBMLCmd(o *rootOptions) *cobra.Command {
	var (
		output        string
		schemas       string
		excludeTables string
	)

	cmd := &cobra.Command{
		Use:   "dbml",
		Short: "Generate DBML from the seeded database",
		Long: `Generate DBML (Database Markup Language) documentation of the database the
seed is applied to. The seed version table is left out. Postgres only.

DBML files can be visualized at https://dbdiagram.io

Examples:
  demoseed dbml                  # Output to stdout
  demoseed dbml -o schema.dbml   # Output to file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL, err := o.databaseURL()
			if err != nil {
				return err
			}
			if o.cfg.Driver != pgconn.DriverPostgres {
				return errors.New("dbml requires the postgres driver")
			}

			opts := dbml.Options{
				Output:       output,
				VersionTable: o.cfg.VersionTable,
			}
			if schemas != "" {
				opts.Schemas = strings.Split(schemas, ",")
			}
			if excludeTables != "" {
				opts.ExcludeTables = strings.Split(excludeTables, ",")
			}

			return dbml.New(cmd.OutOrStdout()).Generate(cmd.Context(), dbURL, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&schemas, "schemas", "", "Comma-separated schemas to include")
	cmd.Flags().StringVar(&excludeTables, "exclude-tables", "", "Comma-separated tables to exclude")

	return cmd
}

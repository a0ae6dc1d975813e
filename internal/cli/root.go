package cli

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lucasefe/demoseed/internal/config"
)

// rootOptions is the state shared by every subcommand of one root command.
type rootOptions struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *logrus.Logger
}

// NewRootCmd builds the demoseed command tree.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "demoseed",
		Short: "Seed and unseed the demo users",
		Long: `demoseed inserts the demo users into the "Users" table and removes them again.

Applied seeds are recorded in a version table, so running "seed up" twice
inserts the users only once.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load(cmd.ErrOrStderr())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.cfgFile, "config", "", "Config file (default: ./demoseed.yaml)")
	flags.StringP("database-url", "d", "", "Database URL (env: DATABASE_URL)")
	flags.String("driver", "postgres", "Database driver: postgres or sqlite")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("version-table", "demoseed_seed_version", "Table recording applied seeds")
	flags.Duration("timeout", 0, "Timeout for each seed statement (0 = none)")

	for key, flag := range map[string]string{
		"database_url":  "database-url",
		"driver":        "driver",
		"log_level":     "log-level",
		"log_format":    "log-format",
		"version_table": "version-table",
		"timeout":       "timeout",
	} {
		// Lookup cannot fail for flags registered above.
		_ = o.v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(newSeedCmd(o))
	cmd.AddCommand(newDBMLCmd(o))

	return cmd
}

func (o *rootOptions) load(stderr io.Writer) error {
	cfg, err := config.Load(o.v, o.cfgFile)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = newLogger(cfg, stderr)
	return nil
}

func newLogger(cfg *config.Config, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	if w == nil {
		w = os.Stderr
	}
	logger.SetOutput(w)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

func (o *rootOptions) databaseURL() (string, error) {
	return o.cfg.RequireDatabaseURL()
}

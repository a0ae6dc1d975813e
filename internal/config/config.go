// Package config loads demoseed settings from flags, environment and an
// optional demoseed.yaml file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingDatabaseURL is returned by RequireDatabaseURL when no URL is set.
var ErrMissingDatabaseURL = errors.New("database URL required (use -d flag or DATABASE_URL env)")

type Config struct {
	DatabaseURL  string        `mapstructure:"database_url"`
	Driver       string        `mapstructure:"driver"`
	LogLevel     string        `mapstructure:"log_level"`
	LogFormat    string        `mapstructure:"log_format"`
	VersionTable string        `mapstructure:"version_table"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Load reads configuration into a Config. configFile, when set, replaces the
// default search for demoseed.yaml.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("demoseed")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database_url", "DATABASE_URL", "DEMOSEED_DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("binding DATABASE_URL: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("demoseed")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.demoseed")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RequireDatabaseURL returns the database URL or ErrMissingDatabaseURL.
func (c *Config) RequireDatabaseURL() (string, error) {
	if c.DatabaseURL == "" {
		return "", ErrMissingDatabaseURL
	}
	return c.DatabaseURL, nil
}

func (c *Config) validate() error {
	switch c.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid driver %q (want postgres or sqlite)", c.Driver)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", c.LogFormat)
	}
	if c.VersionTable == "" {
		return errors.New("version table must not be empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %s", c.Timeout)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "")
	v.SetDefault("driver", "postgres")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("version_table", "demoseed_seed_version")
	v.SetDefault("timeout", "0s")
}

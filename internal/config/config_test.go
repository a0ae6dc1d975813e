package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Driver != "postgres" {
		t.Errorf("Driver = %q, want postgres", cfg.Driver)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.VersionTable != "demoseed_seed_version" {
		t.Errorf("VersionTable = %q", cfg.VersionTable)
	}
	if cfg.Timeout != 0 {
		t.Errorf("Timeout = %s, want 0", cfg.Timeout)
	}
	if _, err := cfg.RequireDatabaseURL(); !errors.Is(err, ErrMissingDatabaseURL) {
		t.Errorf("RequireDatabaseURL err = %v, want ErrMissingDatabaseURL", err)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost/app")
	t.Setenv("DEMOSEED_DRIVER", "sqlite")
	t.Setenv("DEMOSEED_TIMEOUT", "3s")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	url, err := cfg.RequireDatabaseURL()
	if err != nil || url != "postgres://localhost/app" {
		t.Errorf("RequireDatabaseURL = %q, %v", url, err)
	}
	if cfg.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.Driver)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("Timeout = %s, want 3s", cfg.Timeout)
	}
}

func TestLoad_File(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	content := "database_url: ./dev.db\ndriver: sqlite\nlog_format: json\nversion_table: seeds\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != "./dev.db" || cfg.Driver != "sqlite" || cfg.LogFormat != "json" || cfg.VersionTable != "seeds" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"driver", "DEMOSEED_DRIVER", "mysql"},
		{"log format", "DEMOSEED_LOG_FORMAT", "xml"},
		{"timeout", "DEMOSEED_TIMEOUT", "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.val)
			if _, err := Load(viper.New(), ""); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

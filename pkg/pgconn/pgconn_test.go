package pgconn

import (
	"context"
	"path/filepath"
	"testing"
)

func TestEnsureSSLMode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@localhost/db", "postgres://u:p@localhost/db?sslmode=disable"},
		{"postgres://u:p@localhost/db?sslmode=require", "postgres://u:p@localhost/db?sslmode=require"},
		{"postgres://localhost/db?application_name=x", "postgres://localhost/db?application_name=x&sslmode=disable"},
	}
	for _, tt := range tests {
		if got := ensureSSLMode(tt.in); got != tt.want {
			t.Errorf("ensureSSLMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpen_SQLite(t *testing.T) {
	db, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "x.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "whatever"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type envTestConfig struct {
	Port int `env:"NETRUNNER_TEST_PORT" envDefault:"123"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("NETRUNNER_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DIALECT", "")
	t.Setenv("DB_SQLITE_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.DataDir != "data" || cfg.AdminToken != "DEV" || !cfg.Ticks {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DB.Backend() != DialectSQLite {
		t.Fatalf("default dialect = %q", cfg.DB.Backend())
	}
	if cfg.DB.DSN() != filepath.Join("tmp", "netrunner.sqlite") {
		t.Fatalf("default sqlite path = %q", cfg.DB.DSN())
	}
	if cfg.DB.PingTimeout != 10*time.Second {
		t.Fatalf("ping timeout = %v", cfg.DB.PingTimeout)
	}
}

func TestLoadDialectErrors(t *testing.T) {
	t.Setenv("DB_POSTGRES_DSN", "")
	t.Setenv("DATABASE_URL", "")

	t.Setenv("DB_DIALECT", "postgres")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "requires DB_POSTGRES_DSN or DATABASE_URL") {
		t.Fatalf("expected postgres DSN error, got %v", err)
	}

	t.Setenv("DB_DIALECT", "bogus")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "unsupported DB_DIALECT") {
		t.Fatalf("expected unsupported dialect error, got %v", err)
	}
}

func TestPostgresDSNFallsBackToDatabaseURL(t *testing.T) {
	t.Setenv("DB_DIALECT", "Postgres")
	t.Setenv("DB_POSTGRES_DSN", "")
	t.Setenv("DATABASE_URL", " postgres://runner@localhost/netrunner ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.DB.Backend() != DialectPostgres {
		t.Fatalf("dialect = %q", cfg.DB.Backend())
	}
	if got := cfg.DB.DSN(); got != "postgres://runner@localhost/netrunner" {
		t.Fatalf("DSN = %q", got)
	}
}

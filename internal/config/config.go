// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Dialect selects the persistence backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMemory   Dialect = "memory"
)

// Config is the runtime configuration of the netrunner server.
type Config struct {
	Addr       string `env:"NETRUNNER_ADDR" envDefault:":8080"`
	DataDir    string `env:"NETRUNNER_DATA_DIR" envDefault:"data"`
	Seed       int64  `env:"NETRUNNER_SEED" envDefault:"0"`
	AdminToken string `env:"NETRUNNER_ADMIN_TOKEN" envDefault:"DEV"`
	Ticks      bool   `env:"NETRUNNER_TICKS" envDefault:"true"`

	DB DB
}

// DB holds the repository settings. Names match the ones operators already use.
type DB struct {
	Dialect     string        `env:"DB_DIALECT" envDefault:"sqlite"`
	SQLitePath  string        `env:"DB_SQLITE_PATH"`
	PostgresDSN string        `env:"DB_POSTGRES_DSN"`
	DatabaseURL string        `env:"DATABASE_URL"`
	PingTimeout time.Duration `env:"DB_PING_TIMEOUT" envDefault:"10s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the process configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.DB.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Backend returns the normalized dialect.
func (d DB) Backend() Dialect {
	return Dialect(strings.TrimSpace(strings.ToLower(d.Dialect)))
}

// DSN returns the data source for the configured dialect.
func (d DB) DSN() string {
	switch d.Backend() {
	case DialectSQLite:
		return d.SQLitePath
	case DialectPostgres:
		if d.PostgresDSN != "" {
			return d.PostgresDSN
		}
		return d.DatabaseURL
	default:
		return ""
	}
}

func (d *DB) normalize() error {
	if strings.TrimSpace(d.Dialect) == "" {
		d.Dialect = string(DialectSQLite)
	}
	d.SQLitePath = strings.TrimSpace(d.SQLitePath)
	d.PostgresDSN = strings.TrimSpace(d.PostgresDSN)
	d.DatabaseURL = strings.TrimSpace(d.DatabaseURL)

	switch d.Backend() {
	case DialectSQLite:
		if d.SQLitePath == "" {
			d.SQLitePath = filepath.Join("tmp", "netrunner.sqlite")
		}
	case DialectPostgres:
		if d.PostgresDSN == "" && d.DatabaseURL == "" {
			return errors.New("DB_DIALECT=postgres requires DB_POSTGRES_DSN or DATABASE_URL")
		}
	case DialectMemory:
	default:
		return fmt.Errorf("unsupported DB_DIALECT %q", d.Dialect)
	}
	return nil
}

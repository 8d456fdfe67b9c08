// Package storage persists the player snapshot in SQLite or Postgres.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"netrunner/internal/config"
	"netrunner/internal/engine"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// SQLRepository stores one player's snapshot. Hardening and the event
// ledger get their own rows; everything else is a JSON payload.
type SQLRepository struct {
	dialect config.Dialect
	db      *sql.DB
}

// Open connects to the configured backend and applies pending migrations.
// The memory dialect returns a nil repository.
func Open(ctx context.Context, cfg config.DB) (*SQLRepository, error) {
	dialect := cfg.Backend()
	if dialect == "" {
		dialect = config.DialectSQLite
	}

	var driverName, dsn string
	switch dialect {
	case config.DialectMemory:
		return nil, nil
	case config.DialectSQLite:
		driverName = "sqlite"
		dsn = cfg.SQLitePath
		if dsn == "" {
			dsn = filepath.Join("tmp", "netrunner.sqlite")
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	case config.DialectPostgres:
		driverName = "pgx"
		dsn = cfg.DSN()
		if dsn == "" {
			return nil, errors.New("DB_DIALECT=postgres requires DB_POSTGRES_DSN or DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DIALECT %q", cfg.Dialect)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	repo := &SQLRepository{dialect: dialect, db: db}
	if err := repo.applyMigrations(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Printf("database: dialect=%s", dialect)
	return repo, nil
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func (r *SQLRepository) bind(pos int) string {
	if r.dialect == config.DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (r *SQLRepository) insertQuery(table string, cols []string) string {
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = r.bind(i + 1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(cols, ", "),
		strings.Join(ph, ", "),
	)
}

func (r *SQLRepository) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	if err := loadRows(ctx, r.db, "SELECT version FROM schema_migrations", func(v string) error {
		applied[v] = true
		return nil
	}); err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}

	files, err := fs.Glob(migrationFS, fmt.Sprintf("migrations/%s/*.sql", r.dialect))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		sqlBytes, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		q := r.insertQuery("schema_migrations", []string{"version", "applied_at"})
		if _, err := tx.ExecContext(ctx, q, base, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

type hardeningRow struct {
	ServerID string `json:"serverId"`
	engine.Hardening
}

// Save replaces the stored snapshot in one transaction.
func (r *SQLRepository) Save(ctx context.Context, snap engine.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	if err := r.saveWithTx(ctx, tx, snap); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}
	return nil
}

func (r *SQLRepository) saveWithTx(ctx context.Context, tx *sql.Tx, snap engine.Snapshot) error {
	for _, tbl := range []string{"player_state", "server_hardening", "active_events"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+tbl); err != nil {
			return fmt.Errorf("clear %s: %w", tbl, err)
		}
	}

	now := time.Now().UTC()
	hardening, events := snap.Hardening, snap.Events
	snap.Hardening, snap.Events = nil, nil

	payload, err := asJSON(snap)
	if err != nil {
		return err
	}
	if err := r.insertRow(ctx, tx, "player_state", []string{"id", "payload", "updated_at"}, []any{1, payload, now}); err != nil {
		return err
	}

	ids := make([]string, 0, len(hardening))
	for id := range hardening {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		h := hardening[id]
		payload, err := asJSON(hardeningRow{ServerID: id, Hardening: h})
		if err != nil {
			return err
		}
		if err := r.insertRow(ctx, tx, "server_hardening",
			[]string{"server_id", "level", "last_applied_at", "payload"},
			[]any{id, h.Level, nullableTime(h.LastAppliedAt), payload},
		); err != nil {
			return err
		}
	}

	for i, e := range events {
		payload, err := asJSON(e)
		if err != nil {
			return err
		}
		if err := r.insertRow(ctx, tx, "active_events",
			[]string{"seq", "id", "type", "corp", "ends_at", "payload"},
			[]any{i, e.ID, e.Type, e.Corp, e.Ends.UTC(), payload},
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLRepository) insertRow(ctx context.Context, tx *sql.Tx, table string, cols []string, vals []any) error {
	if _, err := tx.ExecContext(ctx, r.insertQuery(table, cols), vals...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

func asJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(b), nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// Load reads the stored snapshot. ok is false when nothing has been saved.
func (r *SQLRepository) Load(ctx context.Context) (snap engine.Snapshot, ok bool, err error) {
	var payload string
	err = r.db.QueryRowContext(ctx, "SELECT payload FROM player_state WHERE id = 1").Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Snapshot{}, false, nil
	}
	if err != nil {
		return engine.Snapshot{}, false, fmt.Errorf("load player_state: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return engine.Snapshot{}, false, fmt.Errorf("decode player_state: %w", err)
	}

	snap.Hardening = map[string]engine.Hardening{}
	if err := loadRows(ctx, r.db, "SELECT payload FROM server_hardening", func(payload string) error {
		var row hardeningRow
		if err := json.Unmarshal([]byte(payload), &row); err != nil {
			return err
		}
		snap.Hardening[row.ServerID] = row.Hardening
		return nil
	}); err != nil {
		return engine.Snapshot{}, false, fmt.Errorf("load server_hardening: %w", err)
	}

	snap.Events = []engine.Event{}
	if err := loadRows(ctx, r.db, "SELECT payload FROM active_events ORDER BY seq", func(payload string) error {
		var e engine.Event
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return err
		}
		snap.Events = append(snap.Events, e)
		return nil
	}); err != nil {
		return engine.Snapshot{}, false, fmt.Errorf("load active_events: %w", err)
	}
	return snap, true, nil
}

func loadRows(ctx context.Context, db *sql.DB, q string, fn func(string) error) error {
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return rows.Err()
}

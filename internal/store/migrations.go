package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/soyeahso/jsmdeploy/internal/logging"
)

// migration is a single schema step.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create runs and steps",
		SQL: `
			CREATE TABLE runs (
				id           TEXT PRIMARY KEY,
				operation    TEXT NOT NULL,
				started_at   TEXT NOT NULL,
				finished_at  TEXT NOT NULL,
				status       TEXT NOT NULL,
				error        TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_runs_started ON runs (started_at);

			CREATE TABLE steps (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
				seq          INTEGER NOT NULL,
				name         TEXT NOT NULL,
				status       TEXT NOT NULL,
				exit_code    INTEGER NOT NULL DEFAULT -1,
				duration_ms  INTEGER NOT NULL DEFAULT 0,
				error        TEXT NOT NULL DEFAULT ''
			);

			CREATE UNIQUE INDEX idx_steps_run ON steps (run_id, seq);
		`,
	},
	{
		Version: 2,
		Name:    "add step messages",
		SQL:     `ALTER TABLE steps ADD COLUMN message TEXT NOT NULL DEFAULT '';`,
	},
}

// migrate applies every migration newer than the highest recorded version,
// each in its own transaction.
func migrate(ctx context.Context, db *sql.DB, log *logging.Logger) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		log.Debug().Int("version", m.Version).Str("name", m.Name).Msg("applying migration")
		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, m.Version); err != nil {
		return err
	}
	return tx.Commit()
}

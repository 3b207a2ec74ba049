// Package store keeps the history of lifecycle runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/soyeahso/jsmdeploy/internal/lifecycle"
	"github.com/soyeahso/jsmdeploy/internal/logging"
)

// memory names an in-memory database.
const memory = ":memory:"

// Run is a recorded lifecycle operation.
type Run struct {
	ID        string
	Operation string
	Status    string
	Error     string
	Started   time.Time
	Finished  time.Time
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// Step is a recorded step of a run.
type Step struct {
	Seq      int
	Name     string
	Status   string
	Message  string
	ExitCode int
	Duration time.Duration
	Error    string
}

// Run statuses.
const (
	RunOK     = "ok"
	RunFailed = "failed"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrRunNotFound is returned when no run matches an id.
var ErrRunNotFound = errors.New("run not found")

// History stores lifecycle outcomes.
type History struct {
	db  *sql.DB
	log *logging.Logger
}

// OpenHistory opens the history database at path, creating it and applying
// pending migrations as needed. ":memory:" opens a throwaway database.
func OpenHistory(ctx context.Context, path string, log *logging.Logger) (*History, error) {
	if path != memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	pragmas := []string{"PRAGMA foreign_keys=ON"}
	if path == memory {
		// Every connection to :memory: gets a fresh database.
		db.SetMaxOpenConns(1)
	} else {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("history %s: %w", p, err)
		}
	}

	h := &History{db: db, log: log.Sub("history")}
	if err := migrate(ctx, db, h.log); err != nil {
		db.Close()
		return nil, err
	}
	h.log.Debug().Str("path", path).Msg("history opened")
	return h, nil
}

// Close releases the database.
func (h *History) Close() error {
	return h.db.Close()
}

// Count returns the number of recorded runs.
func (h *History) Count(ctx context.Context) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting runs: %w", err)
	}
	return n, nil
}

// Record stores an outcome and its steps in one transaction.
func (h *History) Record(ctx context.Context, o *lifecycle.Outcome) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	status, errText := RunOK, ""
	if o.Err != nil {
		status, errText = RunFailed, o.Err.Error()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, operation, started_at, finished_at, status, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.Operation, formatTime(o.Started), formatTime(o.Finished), status, errText,
	); err != nil {
		return fmt.Errorf("inserting run %s: %w", o.ID, err)
	}

	for i, s := range o.Steps {
		stepErr := ""
		if s.Err != nil {
			stepErr = s.Err.Error()
		}
		exitCode := s.ExitCode
		if s.Status != lifecycle.StatusFailed {
			exitCode = 0
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO steps (run_id, seq, name, status, message, exit_code, duration_ms, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, i, s.Name, string(s.Status), s.Message, exitCode, s.Duration.Milliseconds(), stepErr,
		); err != nil {
			return fmt.Errorf("inserting step %s: %w", s.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", o.ID, err)
	}
	h.log.Debug().Str("run", o.ID).Str("op", o.Operation).Str("status", status).Msg("run recorded")
	return nil
}

// Recent returns up to limit runs, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, operation, started_at, finished_at, status, error
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get returns a single run by id.
func (h *History) Get(ctx context.Context, id string) (Run, error) {
	row := h.db.QueryRowContext(ctx,
		`SELECT id, operation, started_at, finished_at, status, error
		 FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// Steps returns the steps of a run in execution order.
func (h *History) Steps(ctx context.Context, runID string) ([]Step, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT seq, name, status, message, exit_code, duration_ms, error
		 FROM steps WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying steps: %w", err)
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		var s Step
		var ms int64
		if err := rows.Scan(&s.Seq, &s.Name, &s.Status, &s.Message, &s.ExitCode, &ms, &s.Error); err != nil {
			return nil, fmt.Errorf("scanning step: %w", err)
		}
		s.Duration = time.Duration(ms) * time.Millisecond
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// Prune deletes all but the newest keep runs and returns how many were
// removed.
func (h *History) Prune(ctx context.Context, keep int) (int64, error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	// foreign_keys is per connection, so orphans are removed explicitly.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM steps WHERE run_id NOT IN (SELECT id FROM runs)`); err != nil {
		return 0, fmt.Errorf("pruning steps: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	var started, finished string
	if err := sc.Scan(&r.ID, &r.Operation, &started, &finished, &r.Status, &r.Error); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}
	r.Started, _ = time.Parse(timeLayout, started)
	r.Finished, _ = time.Parse(timeLayout, finished)
	return r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

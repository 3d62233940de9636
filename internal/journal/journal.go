package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/readygate/readygate/internal/fileutil"
	"github.com/readygate/readygate/internal/sentinel"
)

// ErrEmptyPath is returned by Open when no database path is given.
const ErrEmptyPath = sentinel.Error("journal path must not be empty")

// DefaultKeep is how many launches the journal retains when Config.Keep is
// zero.
const DefaultKeep = 100

// Outcomes recorded for a launch.
const (
	OutcomeHandoff      = "handoff"       // control passed to the server
	OutcomeGateFailed   = "gate_failed"   // a dependency never became ready
	OutcomeInitFailed   = "init_failed"   // an init step failed
	OutcomeLaunchFailed = "launch_failed" // the server could not be started
	OutcomeExited       = "exited"        // supervised server exited, exit code recorded
)

// Config configures a Journal.
type Config struct {
	Path   string       // database file, required
	Keep   int          // newest launches kept by pruning, 0 means DefaultKeep
	Logger *slog.Logger // nil uses slog.Default()
}

// TargetResult is the journaled outcome of one dependency wait.
type TargetResult struct {
	Target   string
	Ready    bool
	Attempts int
	Elapsed  time.Duration
	Error    string
}

// StepResult is the journaled outcome of one init step.
type StepResult struct {
	Name    string
	Skipped bool
	Elapsed time.Duration
	Error   string
}

// Entry is one launch to record.
type Entry struct {
	StartedAt time.Time
	Command   string
	Mode      string // "exec" or "supervise"
	Outcome   string
	Error     string
	Elapsed   time.Duration // gate plus init, not server runtime
	Targets   []TargetResult
	Steps     []StepResult
}

// Launch is a recorded launch read back from the journal.
type Launch struct {
	ID        int64
	StartedAt time.Time
	Command   string
	Mode      string
	Outcome   string
	ExitCode  *int // only for supervised launches whose server exited
	Error     string
	Elapsed   time.Duration
	Targets   []TargetResult
	Steps     []StepResult
}

// Journal records launches in a local SQLite database.
type Journal struct {
	db   *sql.DB
	keep int
	log  *slog.Logger
}

// Open opens or creates the journal database and prepares its schema.
func Open(cfg Config) (*Journal, error) {
	if cfg.Path == "" {
		return nil, ErrEmptyPath
	}
	if cfg.Keep < 0 {
		return nil, fmt.Errorf("journal: keep must not be negative, got %d", cfg.Keep)
	}
	keep := cfg.Keep
	if keep == 0 {
		keep = DefaultKeep
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	if err := fileutil.EnsureDirForFile(cfg.Path); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", cfg.Path, err)
	}

	// Single connection prevents concurrent write contention in SQLite.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: %s: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debug("journal ready", "path", cfg.Path, "keep", keep)
	return &Journal{db: db, keep: keep, log: log}, nil
}

func createSchema(db *sql.DB) error {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS launches (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at  DATETIME NOT NULL,
			command     TEXT NOT NULL,
			mode        TEXT NOT NULL,
			outcome     TEXT NOT NULL,
			exit_code   INTEGER,
			error       TEXT,
			elapsed_ms  INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS launch_targets (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			launch_id   INTEGER NOT NULL REFERENCES launches(id) ON DELETE CASCADE,
			target      TEXT NOT NULL,
			ready       BOOLEAN NOT NULL,
			attempts    INTEGER NOT NULL,
			elapsed_ms  INTEGER NOT NULL,
			error       TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS launch_steps (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			launch_id   INTEGER NOT NULL REFERENCES launches(id) ON DELETE CASCADE,
			name        TEXT NOT NULL,
			skipped     BOOLEAN NOT NULL,
			elapsed_ms  INTEGER NOT NULL,
			error       TEXT
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("journal: create schema: %w", err)
		}
	}
	return nil
}

// Record writes one launch with its target and step results, then prunes
// old launches beyond the keep limit. It returns the new launch's ID so a
// supervising launcher can finish the record once the server exits.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("journal: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO launches (started_at, command, mode, outcome, error, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		e.StartedAt.UTC(),
		e.Command,
		e.Mode,
		e.Outcome,
		e.Error,
		e.Elapsed/time.Millisecond,
	)
	if err != nil {
		return 0, fmt.Errorf("journal: insert launch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("journal: launch id: %w", err)
	}

	for _, tr := range e.Targets {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO launch_targets (launch_id, target, ready, attempts, elapsed_ms, error)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, tr.Target, tr.Ready, tr.Attempts, tr.Elapsed/time.Millisecond, tr.Error); err != nil {
			return 0, fmt.Errorf("journal: insert target: %w", err)
		}
	}
	for _, sr := range e.Steps {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO launch_steps (launch_id, name, skipped, elapsed_ms, error)
			VALUES (?, ?, ?, ?, ?)
		`, id, sr.Name, sr.Skipped, sr.Elapsed/time.Millisecond, sr.Error); err != nil {
			return 0, fmt.Errorf("journal: insert step: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM launches
		WHERE id NOT IN (SELECT id FROM launches ORDER BY id DESC LIMIT ?)
	`, j.keep); err != nil {
		return 0, fmt.Errorf("journal: prune: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("journal: commit: %w", err)
	}
	return id, nil
}

// Finish updates a supervised launch once its server has exited.
func (j *Journal) Finish(ctx context.Context, id int64, exitCode int) error {
	_, err := j.db.ExecContext(ctx, `
		UPDATE launches SET outcome = ?, exit_code = ? WHERE id = ?
	`, OutcomeExited, exitCode, id)
	if err != nil {
		return fmt.Errorf("journal: finish launch %d: %w", id, err)
	}
	return nil
}

// Amend rewrites a launch's outcome and error text. A handoff row is
// written before the process image is replaced, because on success there
// is no launcher left to write it; when the handoff itself fails, the row
// is corrected here instead of left claiming success.
func (j *Journal) Amend(ctx context.Context, id int64, outcome, errText string) error {
	_, err := j.db.ExecContext(ctx, `
		UPDATE launches SET outcome = ?, error = ? WHERE id = ?
	`, outcome, errText, id)
	if err != nil {
		return fmt.Errorf("journal: amend launch %d: %w", id, err)
	}
	return nil
}

// Recent returns up to limit launches, newest first, each with its target
// and step results.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Launch, error) {
	if limit <= 0 {
		limit = j.keep
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, started_at, command, mode, outcome, exit_code, error, elapsed_ms
		FROM launches ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query launches: %w", err)
	}
	defer rows.Close()

	var launches []Launch
	for rows.Next() {
		var (
			l         Launch
			exitCode  sql.NullInt64
			elapsedMS int64
		)
		if err := rows.Scan(&l.ID, &l.StartedAt, &l.Command, &l.Mode, &l.Outcome, &exitCode, &l.Error, &elapsedMS); err != nil {
			return nil, fmt.Errorf("journal: scan launch: %w", err)
		}
		if exitCode.Valid {
			code := int(exitCode.Int64)
			l.ExitCode = &code
		}
		l.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		launches = append(launches, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate launches: %w", err)
	}

	for i := range launches {
		if err := j.loadDetails(ctx, &launches[i]); err != nil {
			return nil, err
		}
	}
	return launches, nil
}

func (j *Journal) loadDetails(ctx context.Context, l *Launch) error {
	targetRows, err := j.db.QueryContext(ctx, `
		SELECT target, ready, attempts, elapsed_ms, error
		FROM launch_targets WHERE launch_id = ? ORDER BY id
	`, l.ID)
	if err != nil {
		return fmt.Errorf("journal: query targets: %w", err)
	}
	defer targetRows.Close()

	for targetRows.Next() {
		var (
			tr        TargetResult
			elapsedMS int64
		)
		if err := targetRows.Scan(&tr.Target, &tr.Ready, &tr.Attempts, &elapsedMS, &tr.Error); err != nil {
			return fmt.Errorf("journal: scan target: %w", err)
		}
		tr.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		l.Targets = append(l.Targets, tr)
	}
	if err := targetRows.Err(); err != nil {
		return fmt.Errorf("journal: iterate targets: %w", err)
	}

	stepRows, err := j.db.QueryContext(ctx, `
		SELECT name, skipped, elapsed_ms, error
		FROM launch_steps WHERE launch_id = ? ORDER BY id
	`, l.ID)
	if err != nil {
		return fmt.Errorf("journal: query steps: %w", err)
	}
	defer stepRows.Close()

	for stepRows.Next() {
		var (
			sr        StepResult
			elapsedMS int64
		)
		if err := stepRows.Scan(&sr.Name, &sr.Skipped, &elapsedMS, &sr.Error); err != nil {
			return fmt.Errorf("journal: scan step: %w", err)
		}
		sr.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		l.Steps = append(l.Steps, sr)
	}
	if err := stepRows.Err(); err != nil {
		return fmt.Errorf("journal: iterate steps: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

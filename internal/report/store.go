package report

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"devd/internal/config"
)

// Session is one completed cold-boot pass.
type Session struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Events     int
	Workers    int
	Parallel   bool
	Outcome    string
}

// NewSession allocates a session record with a fresh identifier.
func NewSession() Session {
	return Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

// Store manages boot-session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the boot report database and applies
// migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.StateDir, "boot.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) applyMigrations(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS boot_sessions (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    duration_ms INTEGER NOT NULL,
    events INTEGER NOT NULL,
    workers INTEGER NOT NULL,
    parallel INTEGER NOT NULL,
    outcome TEXT NOT NULL
)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk database location.
func (s *Store) Path() string {
	return s.path
}

// Record inserts a completed session.
func (s *Store) Record(ctx context.Context, session Session) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO boot_sessions (
            id, started_at, finished_at, duration_ms,
            events, workers, parallel, outcome
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.StartedAt.UTC().Format(time.RFC3339Nano),
		session.FinishedAt.UTC().Format(time.RFC3339Nano),
		session.Duration.Milliseconds(),
		session.Events,
		session.Workers,
		boolToInt(session.Parallel),
		session.Outcome,
	)
	if err != nil {
		return fmt.Errorf("insert boot session: %w", err)
	}
	return nil
}

// List returns the most recent sessions, newest first. limit <= 0 returns
// all of them.
func (s *Store) List(ctx context.Context, limit int) ([]Session, error) {
	query := `SELECT id, started_at, finished_at, duration_ms, events, workers, parallel, outcome
        FROM boot_sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list boot sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			session    Session
			started    string
			finished   string
			durationMS int64
			parallel   int
		)
		if err := rows.Scan(&session.ID, &started, &finished, &durationMS,
			&session.Events, &session.Workers, &parallel, &session.Outcome); err != nil {
			return nil, fmt.Errorf("scan boot session: %w", err)
		}
		if session.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if session.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		session.Duration = time.Duration(durationMS) * time.Millisecond
		session.Parallel = parallel != 0
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

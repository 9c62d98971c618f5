// Package storage exports one analysis run and its issues to a SQLite file.
// Each export starts from an empty file; the database is not a run history.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/olegiv/logissue-ai-go/internal/analyzer"
	"github.com/olegiv/logissue-ai-go/internal/issue"
	"github.com/olegiv/logissue-ai-go/internal/logging"
)

var (
	// ErrRunNotFound is returned by LoadRun when the database holds no run.
	ErrRunNotFound = errors.New("run not found")
	// ErrRunExists is returned by SaveRun when the database already holds a run.
	ErrRunExists = errors.New("database already holds a run")
)

// Storage handles database operations
type Storage struct {
	db  *sql.DB
	log *logging.SecureLogger
}

// Run is one analysis run together with the issues it reported.
type Run struct {
	ID              string
	CreatedAt       time.Time
	SourcePath      string
	Keyword         string
	Files           int
	SizeBytes       int64
	Provider        string
	Model           string
	InputTokens     int
	OutputTokens    int
	CostUSD         float64
	DurationSeconds float64
	RawReport       string
	Issues          []issue.Record
}

// RunFromResult converts a pipeline result into a storable run. The ranked
// and filtered issue list is stored, matching what the CLI shows and exports.
func RunFromResult(result *analyzer.Result) *Run {
	run := &Run{
		ID:         result.ID,
		CreatedAt:  result.CreatedAt,
		SourcePath: result.SourcePath,
		Keyword:    result.Keyword,
		RawReport:  result.RawReport,
		Issues:     result.Ranked,
	}
	if result.Source != nil {
		run.Files = result.Source.Files
		run.SizeBytes = result.Source.SizeBytes
	}
	if result.Stats != nil {
		run.Provider = result.Stats.Provider
		run.Model = result.Stats.Model
		run.InputTokens = result.Stats.InputTokens
		run.OutputTokens = result.Stats.OutputTokens
		run.CostUSD = result.Stats.CostUSD
		run.DurationSeconds = result.Stats.DurationSeconds
	}
	return run
}

// Database configuration constants
const (
	// busyTimeoutMs is how long SQLite waits when database is locked (5 seconds)
	busyTimeoutMs = 5000
	// maxOpenConns limits concurrent connections (SQLite works best with 1)
	maxOpenConns = 1
	// maxIdleConns is the number of idle connections to keep
	maxIdleConns = 1
	// connMaxLifetime is how long a connection can be reused
	connMaxLifetime = 30 * time.Minute
)

// timestampLayout keeps nanoseconds so CreatedAt round-trips exactly.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Create removes any database at dbPath, including SQLite journal files, and
// opens a fresh one for a new export. log may be nil.
func Create(dbPath string, log *logging.SecureLogger) (*Storage, error) {
	for _, path := range []string{dbPath, dbPath + "-journal", dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove previous export: %w", err)
		}
	}
	return New(dbPath, log)
}

// New opens or creates the database at dbPath. log may be nil.
func New(dbPath string, log *logging.SecureLogger) (*Storage, error) {
	// Create directory if it doesn't exist (0700 for security - owner only)
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// The _busy_timeout pragma prevents "database is locked" errors by waiting
	dsn := fmt.Sprintf("%s?_busy_timeout=%d", dbPath, busyTimeoutMs)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	storage := &Storage{db: db, log: log}

	if err := storage.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Schema version constants
const (
	// currentSchemaVersion is the latest schema version
	// Increment this when adding new migrations
	currentSchemaVersion = 2
)

// initSchema creates the database schema if it doesn't exist
func (s *Storage) initSchema() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	version := s.getSchemaVersion()

	if err := s.migrateSchema(version); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version (0 if not set)
func (s *Storage) getSchemaVersion() int {
	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err != nil {
		return 0
	}
	return version
}

// setSchemaVersion updates the schema version
func (s *Storage) setSchemaVersion(version int) error {
	if _, err := s.db.Exec(`DELETE FROM schema_version`); err != nil {
		return err
	}
	if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, version); err != nil {
		return err
	}
	return nil
}

// migrateSchema runs migrations from currentVersion to latest
func (s *Storage) migrateSchema(currentVersion int) error {
	if currentVersion >= currentSchemaVersion {
		return nil
	}

	s.log.Debug().
		Int("from", currentVersion).
		Int("to", currentSchemaVersion).
		Msg("Migrating storage schema")

	// Migration 0 -> 1: runs and issues tables
	if currentVersion < 1 {
		if err := s.migrateV1(); err != nil {
			return fmt.Errorf("migration v1 failed: %w", err)
		}
	}

	// Migration 1 -> 2: keep the raw model report alongside the run
	if currentVersion < 2 {
		if err := s.migrateV2(); err != nil {
			return fmt.Errorf("migration v2 failed: %w", err)
		}
	}

	if err := s.setSchemaVersion(currentSchemaVersion); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	return nil
}

// migrateV1 creates the runs and issues tables
func (s *Storage) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		source_path TEXT NOT NULL,
		keyword TEXT NOT NULL DEFAULT '',
		files INTEGER DEFAULT 0,
		size_bytes INTEGER DEFAULT 0,
		provider TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		input_tokens INTEGER DEFAULT 0,
		output_tokens INTEGER DEFAULT 0,
		cost_usd REAL DEFAULT 0.0,
		duration_seconds REAL DEFAULT 0.0
	);

	CREATE TABLE IF NOT EXISTS issues (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		snippet TEXT NOT NULL,
		cause TEXT NOT NULL DEFAULT '',
		resolution TEXT NOT NULL DEFAULT '',
		severity TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_issues_run ON issues(run_id, position);
	CREATE INDEX IF NOT EXISTS idx_issues_severity ON issues(severity);
	`

	_, err := s.db.Exec(schema)
	return err
}

// migrateV2 adds the raw_report column to runs
func (s *Storage) migrateV2() error {
	hasColumn, err := s.hasColumn("runs", "raw_report")
	if err != nil {
		return err
	}
	if hasColumn {
		return nil
	}

	if _, err := s.db.Exec(`ALTER TABLE runs ADD COLUMN raw_report TEXT NOT NULL DEFAULT ''`); err != nil {
		return fmt.Errorf("failed to add raw_report column: %w", err)
	}
	return nil
}

// hasColumn reports whether table already has column.
func (s *Storage) hasColumn(table, column string) (bool, error) {
	rows, err := s.db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return false, fmt.Errorf("failed to get table info: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("failed to scan column info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// SaveRun stores a run and its issues in one transaction. Issue order is kept.
// A database holds at most one run.
func (s *Storage) SaveRun(run *Run) (err error) {
	if run.ID == "" {
		return errors.New("run ID is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existing int
	if err = tx.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&existing); err != nil {
		return fmt.Errorf("failed to count runs: %w", err)
	}
	if existing > 0 {
		return ErrRunExists
	}

	_, err = tx.Exec(`
		INSERT INTO runs (
			id, created_at, source_path, keyword, files, size_bytes,
			provider, model, input_tokens, output_tokens, cost_usd,
			duration_seconds, raw_report
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.CreatedAt.UTC().Format(timestampLayout),
		run.SourcePath,
		run.Keyword,
		run.Files,
		run.SizeBytes,
		run.Provider,
		run.Model,
		run.InputTokens,
		run.OutputTokens,
		run.CostUSD,
		run.DurationSeconds,
		run.RawReport,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, r := range run.Issues {
		_, err = tx.Exec(`
			INSERT INTO issues (run_id, position, snippet, cause, resolution, severity)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, i, r.Snippet, r.Cause, r.Resolution, r.Severity)
		if err != nil {
			return fmt.Errorf("failed to insert issue %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	s.log.Debug().Str("run_id", run.ID).Int("issues", len(run.Issues)).Msg("Run saved")
	return nil
}

const runColumns = `
	id, created_at, source_path, keyword, files, size_bytes,
	provider, model, input_tokens, output_tokens, cost_usd,
	duration_seconds, raw_report
`

// LoadRun returns the exported run and its issues.
func (s *Storage) LoadRun() (*Run, error) {
	run, err := scanRun(s.db.QueryRow(`SELECT ` + runColumns + ` FROM runs LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	issues, err := s.loadIssues(run.ID)
	if err != nil {
		return nil, err
	}
	run.Issues = issues

	return run, nil
}

func (s *Storage) loadIssues(runID string) ([]issue.Record, error) {
	rows, err := s.db.Query(`
		SELECT snippet, cause, resolution, severity
		FROM issues
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to close database rows")
		}
	}(rows)

	issues := []issue.Record{}
	for rows.Next() {
		var r issue.Record
		if err := rows.Scan(&r.Snippet, &r.Cause, &r.Resolution, &r.Severity); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, r)
	}

	return issues, rows.Err()
}

// scanRun scans a row selected with runColumns into a Run
func scanRun(row *sql.Row) (*Run, error) {
	var (
		run       Run
		createdAt string
	)

	err := row.Scan(
		&run.ID, &createdAt, &run.SourcePath, &run.Keyword, &run.Files, &run.SizeBytes,
		&run.Provider, &run.Model, &run.InputTokens, &run.OutputTokens, &run.CostUSD,
		&run.DurationSeconds, &run.RawReport,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	ts, err := time.Parse(timestampLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	run.CreatedAt = ts

	return &run, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

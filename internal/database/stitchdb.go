package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/webstitch/internal/model"
)

// databaseFile is the name of the archive database file inside the data
// directory.
const databaseFile = "webstitch.db"

// StitchDB provides SQLite-based storage for completed crawl runs.
// It manages connection pooling and provides methods for saving and
// listing runs.
//
// Design decision: We use a single database file for all runs rather than
// one file per run. This keeps the history command a single query and
// simplifies backup/restore operations.
type StitchDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures StitchDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a StitchDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*StitchDB, error) {
	dbPath := filepath.Join(dbDir, databaseFile)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &StitchDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *StitchDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *StitchDB) createTables() error {
	schema := `
	-- Runs store one row per completed crawl
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		chapters INTEGER NOT NULL,
		failures INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_start_url ON runs(start_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	-- Chapters store the per-page results of each run
	CREATE TABLE IF NOT EXISTS chapters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		url TEXT NOT NULL,
		title TEXT,
		html TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_chapters_run ON chapters(run_id);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord represents a stored crawl run.
type RunRecord struct {
	ID        int64
	StartURL  string
	StartedAt time.Time
	Elapsed   time.Duration
	Chapters  int
	Failures  int
}

// SaveRun archives a completed run and its chapter results.
// Returns the run ID of the new row.
func (sdb *StitchDB) SaveRun(ctx context.Context, report *model.StitchReport) (int64, error) {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (start_url, started_at, elapsed_ms, chapters, failures)
	VALUES (?, ?, ?, ?, ?)
	`,
		report.StartURL,
		report.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		report.Elapsed.Milliseconds(),
		report.SuccessCount(),
		report.FailureCount(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, res := range report.Results {
		var title, html, errMsg string
		if res.Chapter != nil {
			title = res.Chapter.Title
			html = res.Chapter.HTML
		}
		if res.Err != nil {
			errMsg = res.Err.Error()
		}

		if _, err := tx.ExecContext(ctx, `
		INSERT INTO chapters (run_id, seq, url, title, html, error)
		VALUES (?, ?, ?, ?, ?, ?)
		`, runID, res.Seq, res.URL, title, html, errMsg); err != nil {
			return 0, fmt.Errorf("failed to insert chapter: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
// limit <= 0 returns all runs.
func (sdb *StitchDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, start_url, started_at, elapsed_ms, chapters, failures
	FROM runs
	ORDER BY started_at DESC, id DESC
	`
	args := make([]interface{}, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var startedAt string
		var elapsedMS int64

		if err := rows.Scan(&rec.ID, &rec.StartURL, &startedAt, &elapsedMS, &rec.Chapters, &rec.Failures); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		rec.StartedAt = parseTimestamp(startedAt)
		rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetRun retrieves an archived run and its chapter results by ID.
// Returns nil without error if the run does not exist.
func (sdb *StitchDB) GetRun(ctx context.Context, id int64) (*model.StitchReport, error) {
	var report model.StitchReport
	var startedAt string
	var elapsedMS int64

	err := sdb.db.QueryRowContext(ctx, `
	SELECT start_url, started_at, elapsed_ms
	FROM runs
	WHERE id = ?
	`, id).Scan(&report.StartURL, &startedAt, &elapsedMS)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	report.StartedAt = parseTimestamp(startedAt)
	report.Elapsed = time.Duration(elapsedMS) * time.Millisecond

	rows, err := sdb.db.QueryContext(ctx, `
	SELECT seq, url, title, html, error
	FROM chapters
	WHERE run_id = ?
	ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var res model.ChapterResult
		var title, html, errMsg string

		if err := rows.Scan(&res.Seq, &res.URL, &title, &html, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}

		if errMsg != "" {
			res.Err = fmt.Errorf("%s", errMsg)
		} else {
			res.Chapter = &model.Chapter{
				URL:   res.URL,
				Title: title,
				HTML:  html,
			}
		}
		report.Results = append(report.Results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &report, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

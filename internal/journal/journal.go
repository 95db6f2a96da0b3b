// Package journal keeps a local SQLite record of session lifecycle
// transitions. It stores states, tickers, result ids and error kinds only;
// recommendation content and chat text are never written.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/stocklens/internal/common"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DefaultLimit is the number of entries Recent returns when limit <= 0.
const DefaultLimit = 20

// Entry is one recorded transition.
type Entry struct {
	RecordedAt time.Time
	State      string
	Ticker     string
	Depth      string
	ResultID   string
	ErrorKind  string
	Error      string
	ID         int64
	Version    uint64
}

// Journal is a SQLite-backed transition log.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
	path   string
}

// Option customizes a Journal.
type Option func(*Journal)

// WithLogger sets the logger used for write failures.
func WithLogger(logger *slog.Logger) Option {
	return func(j *Journal) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) {
		if now != nil {
			j.now = now
		}
	}
}

// Open opens (creating if needed) the journal database at path. Call Migrate
// before use.
func Open(path string, opts ...Option) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: journal path is required", common.ErrInvalidConfig)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}

	j := &Journal{
		db:     db,
		path:   path,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends an entry. RecordedAt is filled from the clock when zero.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.State == "" {
		return fmt.Errorf("journal entry state is required")
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = j.now()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO transitions (recorded_at, state, ticker, depth, result_id, error_kind, error, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RecordedAt.UTC(), e.State, e.Ticker, e.Depth, e.ResultID, e.ErrorKind, e.Error, int64(e.Version))
	if err != nil {
		return fmt.Errorf("failed to record transition: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, recorded_at, state, ticker, depth, result_id, error_kind, error, version
		FROM transitions
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			version int64
		)
		if err := rows.Scan(&e.ID, &e.RecordedAt, &e.State, &e.Ticker, &e.Depth,
			&e.ResultID, &e.ErrorKind, &e.Error, &version); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		e.Version = uint64(version)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transitions: %w", err)
	}

	return entries, nil
}

// Package store handles SQLite persistence.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/verte-zerg/vocadrill/internal/logging"

	_ "modernc.org/sqlite" // SQLite driver.
)

var (
	// ErrNotFound is returned when a word does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a word with the same text already exists
	// in the same set.
	ErrDuplicate = errors.New("word already exists")
)

// timeLayout is fixed width and UTC so timestamps compare as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps SQLite access for words and practice history.
type Store struct {
	db         *sqlx.DB
	log        *slog.Logger
	maxHistory int
}

// Option configures Open.
type Option func(*Store)

// WithLogger sets the logger used for dropped deltas and pruning.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithHistoryCap overrides the number of history entries kept.
func WithHistoryCap(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string, opts ...Option) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{
		db:         db,
		log:        logging.Discard(),
		maxHistory: defaultHistoryCap,
	}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS words (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			text_key TEXT NOT NULL,
			set_id TEXT NOT NULL DEFAULT '',
			meanings TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			review_count INTEGER NOT NULL DEFAULT 0,
			correct_count INTEGER NOT NULL DEFAULT 0,
			streak INTEGER NOT NULL DEFAULT 0,
			mastered INTEGER NOT NULL DEFAULT 0,
			bookmarked INTEGER NOT NULL DEFAULT 0,
			srs_level INTEGER NOT NULL DEFAULT 0,
			next_review TEXT NOT NULL DEFAULT '',
			last_reviewed TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mode TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			total INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			wrong INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			duration_secs INTEGER NOT NULL,
			wrong_ids TEXT NOT NULL DEFAULT '[]',
			skipped_ids TEXT NOT NULL DEFAULT '[]',
			answers TEXT NOT NULL DEFAULT '[]'
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_words_set_text ON words(set_id, text_key);`,
		`CREATE INDEX IF NOT EXISTS idx_words_next_review ON words(next_review);`,
		`CREATE INDEX IF NOT EXISTS idx_history_ended_at ON history(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// withTx runs fn in a transaction, rolling back when it fails.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

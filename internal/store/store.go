package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// timeFormat is the column encoding for timestamps. Nanosecond
// precision matters: the checksum and merge tie-breaking both key off
// updatedAt, and two edits inside the same second must still differ.
const timeFormat = time.RFC3339Nano

// Store is the local source of truth for stats, entries and settings.
type Store struct {
	db *sql.DB

	mu          sync.Mutex
	subscribers []func()
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Subscribe registers fn to be invoked after every user-driven
// mutation. Sync-driven writes (ReplaceAll, UpdateSyncState) do not
// notify, so applying a resolution cannot re-trigger the sync it came
// from.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := s.subscribers
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	// entries.stat_id carries no REFERENCES clause: orphan prevention is
	// the job of the cascading delete transaction, and imported backups
	// must be insertable in any order.
	const ddl = `
	CREATE TABLE IF NOT EXISTS stats (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		name          TEXT NOT NULL,
		color         TEXT NOT NULL DEFAULT '#6C63FF',
		display_order INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entries (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		stat_id    INTEGER NOT NULL,
		value      INTEGER NOT NULL CHECK (value BETWEEN 0 AND 10),
		date       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_stat ON entries(stat_id);
	CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(date);

	CREATE TABLE IF NOT EXISTS settings (
		id                 INTEGER PRIMARY KEY CHECK (id = 1),
		days_to_show       INTEGER NOT NULL DEFAULT 30,
		sync_enabled       INTEGER NOT NULL DEFAULT 0,
		last_sync_at       TEXT NOT NULL DEFAULT '',
		last_sync_checksum TEXT NOT NULL DEFAULT '',
		remote_file_id     TEXT NOT NULL DEFAULT '',
		badge_refill_days  INTEGER NOT NULL DEFAULT 7
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/habitd/habitd.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "habitd", "habitd.db"), nil
}

// Package store persists Reverie data in SQLite: the per-user conversation
// log, the live persona, and the append-only analysis archive (daydream
// snapshots and dream records).
//
// The conversation log and the archive are append-only; consumers re-derive
// "last N" windows from sequence ordering, never from row position.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"reverie/internal/logging"
)

// Store wraps the SQLite database behind the narrow interfaces the chat
// handler and the pipelines consume.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// Open initializes the SQLite database at the given path. Use ":memory:"
// for tests.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	logging.Store("Opening store at %s", path)

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set synchronous=NORMAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logging.StoreDebug("Failed to enable foreign_keys: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("Store ready (turns, personas, analyses)")
	return s, nil
}

// initialize creates the required tables and runs pending migrations.
func (s *Store) initialize() error {
	turnsTable := `
	CREATE TABLE IF NOT EXISTS chat_turns (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		seq INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(user_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_turns_user_seq ON chat_turns(user_id, seq);
	CREATE INDEX IF NOT EXISTS idx_turns_user_role ON chat_turns(user_id, role);
	`

	personasTable := `
	CREATE TABLE IF NOT EXISTS personas (
		user_id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	// Daydream snapshots and dream records share one archive table,
	// discriminated by kind. seq gives a stable per-user total order even
	// when created_at timestamps collide.
	analysesTable := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		seq INTEGER NOT NULL,
		traits_json TEXT,
		persona_text TEXT,
		source_ids TEXT DEFAULT '[]',
		created_at TEXT NOT NULL,
		UNIQUE(user_id, kind, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_user_kind ON analyses(user_id, kind, seq);
	`

	for _, table := range []string{turnsTable, personasTable, analysesTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	if err := RunMigrations(s.db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	logging.Store("Closing store")
	return s.db.Close()
}

// DeleteUserData erases everything Reverie holds for one user: conversation
// log, persona, and the full analysis archive, in a single transaction.
func (s *Store) DeleteUserData(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM chat_turns WHERE user_id = ?",
		"DELETE FROM personas WHERE user_id = ?",
		"DELETE FROM analyses WHERE user_id = ?",
	} {
		if _, err := tx.Exec(stmt, userID); err != nil {
			return fmt.Errorf("failed to delete user data: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user deletion: %w", err)
	}

	logging.Store("Deleted all data for user %s", userID)
	return nil
}

// Package storage provides the persistent local key-value store backing the
// shopfront client: the equivalent of the browser's localStorage. It holds
// small plain-string values (the bearer token, the anonymous session
// identifier) that must survive across invocations of the program.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"shopfront/internal/logging"
)

// Well-known keys. Values are opaque plain strings with no client-side
// expiry; the token is owned by the auth layer and the session id by the
// session identity provider.
const (
	KeyToken     = "token"
	KeySessionID = "session_id"
)

// Local is a SQLite-backed key-value store scoped to the profile directory.
// Access is single-process; the mutex only guards against concurrent use
// from UI goroutines within this process.
type Local struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open initializes the store at the given path, creating the database and
// schema on first use.
func Open(path string) (*Local, error) {
	logging.Store("Opening local store at %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}

	s := &Local{db: db, dbPath: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Local) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create kv schema: %w", err)
	}
	return nil
}

// Get returns the value for key and whether it was present.
func (s *Local) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Local) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	logging.StoreDebug("Set %q", key)
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Local) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	logging.StoreDebug("Deleted %q", key)
	return nil
}

// Close releases the underlying database handle.
func (s *Local) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Package resumestore is an optional SQLite-backed alternative to the
// per-file JSON sidecar in internal/resume, for fleets with enough
// in-flight files that scanning a directory tree for ".delta.partial.json"
// sidecars becomes the bottleneck. The JSON sidecar remains the
// spec-mandated default; this store is an opt-in backend behind the same
// PartialManifest shape.
package resumestore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/orbit-sync/orbit/internal/resume"
)

// ErrNotFound is returned by Load when no record exists for a destination.
var ErrNotFound = errors.New("resumestore: no manifest for destination")

// Store manages SQLite-backed PartialManifest storage.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if necessary) a resume store at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("resumestore: open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS partial_manifests (
			dest_path  TEXT PRIMARY KEY,
			manifest   TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_manifests_updated ON partial_manifests(updated_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("resumestore: init schema: %w", err)
	}
	return nil
}

// Save persists m for dest, replacing any prior record.
func (s *Store) Save(dest string, m *resume.PartialManifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("resumestore: marshal manifest: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO partial_manifests (dest_path, manifest, updated_at) VALUES (?, ?, ?)`,
		dest, string(data), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("resumestore: save manifest: %w", err)
	}
	return nil
}

// Load retrieves the PartialManifest for dest, or ErrNotFound.
func (s *Store) Load(dest string) (*resume.PartialManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRow(`SELECT manifest FROM partial_manifests WHERE dest_path = ?`, dest).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resumestore: load manifest: %w", err)
	}

	var m resume.PartialManifest
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("resumestore: unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Delete removes the record for dest, called on successful completion.
func (s *Store) Delete(dest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM partial_manifests WHERE dest_path = ?`, dest)
	if err != nil {
		return fmt.Errorf("resumestore: delete manifest: %w", err)
	}
	return nil
}

// Count returns the number of in-flight manifests, for health/capacity
// reporting.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM partial_manifests`).Scan(&n); err != nil {
		return 0, fmt.Errorf("resumestore: count manifests: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

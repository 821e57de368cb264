// Package store is the persistence facade: typed CRUD over the four
// tables (user, contact, message, config) backing the daemon, wrapping
// a single serialized sqlite connection the way the teacher's
// pkg/storage/postgres.Store wraps a pooled pgx connection behind
// per-entity sub-stores. The universe of entities here is small enough
// that concrete functions replace the teacher's generic storage.Store
// interface (see DESIGN.md).
package store

import (
	"database/sql"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/arti-chat/core/internal/coreerr"
)

// Store owns the single sqlite connection backing the daemon. All
// writes (and the facade's own reads) serialize on mu; the facade is
// the only component allowed to hold mu across a call, and it never
// holds it across network I/O.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite file at path and
// applies the schema. Foreign keys are turned on explicitly; sqlite
// defaults them off, which would silently break contact-delete cascade.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, coreerr.New(coreerr.CodePersistence, "failed to open database", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, coreerr.New(coreerr.CodePersistence, "failed to enable foreign keys", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping confirms the underlying connection is still usable, for the
// health checker's store check.
func (s *Store) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Ping(); err != nil {
		return coreerr.New(coreerr.CodePersistence, "database ping failed", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS user (
	onion_id     TEXT PRIMARY KEY,
	nickname     TEXT NOT NULL,
	public_key   TEXT NOT NULL,
	private_key  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contact (
	onion_id       TEXT PRIMARY KEY,
	nickname       TEXT NOT NULL,
	public_key     TEXT NOT NULL,
	last_viewed_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS message (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	contact_onion_id  TEXT NOT NULL REFERENCES contact(onion_id) ON DELETE CASCADE,
	body              TEXT NOT NULL,
	timestamp         INTEGER NOT NULL,
	is_incoming       INTEGER NOT NULL,
	sent_status       INTEGER NOT NULL DEFAULT 0,
	verified_status   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_message_contact ON message(contact_onion_id);

CREATE TABLE IF NOT EXISTS config (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// defaultConfig holds the recognized keys inserted on first schema
// initialization; they are never removed (per the persistence
// invariant in spec §3).
var defaultConfig = map[string]string{
	"enable_notifications": "true",
	"enable_attachments":   "true",
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return coreerr.New(coreerr.CodePersistence, "failed to apply schema", err)
	}

	for key, value := range defaultConfig {
		_, err := s.db.Exec(`INSERT OR IGNORE INTO config (key, value) VALUES (?, ?)`, key, value)
		if err != nil {
			return coreerr.New(coreerr.CodePersistence, "failed to seed config defaults", err)
		}
	}
	return nil
}

package store

import (
	"database/sql"

	"github.com/arti-chat/core/internal/coreerr"
)

// ConfigGet reads a recognized key; unknown or never-set keys read as
// ("", false) rather than an error, matching spec §4.D's "unknown keys
// read as None".
func (s *Store) ConfigGet(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRow(`SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, coreerr.New(coreerr.CodePersistence, "failed to read config key", err)
	}
	return value, true, nil
}

// ConfigGetBool is a convenience wrapper over ConfigGet for the
// boolean-valued flags (enable_notifications, enable_attachments).
func (s *Store) ConfigGetBool(key string) (bool, error) {
	value, ok, err := s.ConfigGet(key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return value == "true", nil
}

// ConfigSet upserts a key/value pair.
func (s *Store) ConfigSet(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO config (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return coreerr.New(coreerr.CodePersistence, "failed to set config key", err)
	}
	return nil
}

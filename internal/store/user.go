package store

import (
	"database/sql"

	"github.com/arti-chat/core/internal/coreerr"
)

// User is the single local-identity row: exactly one per store, keyed
// by the onion address the overlay client currently publishes.
type User struct {
	OnionID    string
	Nickname   string
	PublicKey  string
	PrivateKey string
}

// GetUser returns the single identity row, or coreerr.ErrNotFound if
// none has been created yet.
func (s *Store) GetUser() (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT onion_id, nickname, public_key, private_key FROM user LIMIT 1`)
	var u User
	if err := row.Scan(&u.OnionID, &u.Nickname, &u.PublicKey, &u.PrivateKey); err != nil {
		if err == sql.ErrNoRows {
			return nil, coreerr.New(coreerr.CodePersistence, "no identity row", coreerr.ErrNotFound)
		}
		return nil, coreerr.New(coreerr.CodePersistence, "failed to load identity", err)
	}
	return &u, nil
}

// InsertUser creates the identity row. Called exactly once, on first
// launch, by the identity manager.
func (s *Store) InsertUser(u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO user (onion_id, nickname, public_key, private_key) VALUES (?, ?, ?, ?)`,
		u.OnionID, u.Nickname, u.PublicKey, u.PrivateKey,
	)
	if err != nil {
		return coreerr.New(coreerr.CodePersistence, "failed to insert identity", err)
	}
	return nil
}

// UpdateUser applies non-nil fields only (a non-nil empty string is
// written as given) and is a no-op when both are nil, the facade
// contract in spec §4.D. publicKey/privateKey are optional per the
// UpdateUser RPC command.
func (s *Store) UpdateUser(publicKey, privateKey *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if publicKey == nil && privateKey == nil {
		return nil
	}
	if publicKey != nil {
		if _, err := s.db.Exec(`UPDATE user SET public_key = ?`, *publicKey); err != nil {
			return coreerr.New(coreerr.CodePersistence, "failed to update public key", err)
		}
	}
	if privateKey != nil {
		if _, err := s.db.Exec(`UPDATE user SET private_key = ?`, *privateKey); err != nil {
			return coreerr.New(coreerr.CodePersistence, "failed to update private key", err)
		}
	}
	return nil
}

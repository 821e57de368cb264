package store

import (
	"database/sql"
	"time"

	"github.com/arti-chat/core/internal/coreerr"
)

// Contact is a known peer: their address, a user-assigned nickname,
// and their verifying key.
type Contact struct {
	OnionID      string
	Nickname     string
	PublicKey    string
	LastViewedAt int64
}

// ContactWithUnread augments a Contact with the two computed fields
// from spec §3: the most recent message timestamp and the count of
// inbound messages newer than LastViewedAt.
type ContactWithUnread struct {
	Contact
	LastMessageAt sql.NullInt64
	UnreadCount   int64
}

// InsertContact adds a new contact, created by the AddContact RPC.
func (s *Store) InsertContact(c Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO contact (onion_id, nickname, public_key, last_viewed_at) VALUES (?, ?, ?, 0)`,
		c.OnionID, c.Nickname, c.PublicKey,
	)
	if err != nil {
		return coreerr.New(coreerr.CodePersistence, "failed to insert contact", err)
	}
	return nil
}

// GetContact looks up one contact by onion address.
func (s *Store) GetContact(onionID string) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getContactLocked(onionID)
}

func (s *Store) getContactLocked(onionID string) (*Contact, error) {
	row := s.db.QueryRow(
		`SELECT onion_id, nickname, public_key, last_viewed_at FROM contact WHERE onion_id = ?`,
		onionID,
	)
	var c Contact
	if err := row.Scan(&c.OnionID, &c.Nickname, &c.PublicKey, &c.LastViewedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, coreerr.New(coreerr.CodePersistence, "contact not found", coreerr.ErrNotFound)
		}
		return nil, coreerr.New(coreerr.CodePersistence, "failed to load contact", err)
	}
	return &c, nil
}

// ListContacts returns every contact, ordered by nickname.
func (s *Store) ListContacts() ([]Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT onion_id, nickname, public_key, last_viewed_at FROM contact ORDER BY nickname`)
	if err != nil {
		return nil, coreerr.New(coreerr.CodePersistence, "failed to list contacts", err)
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.OnionID, &c.Nickname, &c.PublicKey, &c.LastViewedAt); err != nil {
			return nil, coreerr.New(coreerr.CodePersistence, "failed to scan contact", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerr.New(coreerr.CodePersistence, "failed to iterate contacts", err)
	}
	return out, nil
}

// ContactsWithUnread joins contact with message to compute
// last_message_at and unread_count in a single query, per spec §4.D.
func (s *Store) ContactsWithUnread() ([]ContactWithUnread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const query = `
		SELECT
			c.onion_id, c.nickname, c.public_key, c.last_viewed_at,
			MAX(m.timestamp) AS last_message_at,
			COUNT(CASE WHEN m.is_incoming = 1 AND m.timestamp > c.last_viewed_at THEN 1 END) AS unread_count
		FROM contact c
		LEFT JOIN message m ON m.contact_onion_id = c.onion_id
		GROUP BY c.onion_id
		ORDER BY c.nickname
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, coreerr.New(coreerr.CodePersistence, "failed to query contacts with unread", err)
	}
	defer rows.Close()

	var out []ContactWithUnread
	for rows.Next() {
		var cw ContactWithUnread
		if err := rows.Scan(&cw.OnionID, &cw.Nickname, &cw.PublicKey, &cw.LastViewedAt, &cw.LastMessageAt, &cw.UnreadCount); err != nil {
			return nil, coreerr.New(coreerr.CodePersistence, "failed to scan contact with unread", err)
		}
		out = append(out, cw)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerr.New(coreerr.CodePersistence, "failed to iterate contacts with unread", err)
	}
	return out, nil
}

// UpdateContact applies non-nil fields only.
func (s *Store) UpdateContact(onionID string, nickname, publicKey *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if nickname == nil && publicKey == nil {
		return nil
	}
	if nickname != nil {
		if _, err := s.db.Exec(`UPDATE contact SET nickname = ? WHERE onion_id = ?`, *nickname, onionID); err != nil {
			return coreerr.New(coreerr.CodePersistence, "failed to update contact nickname", err)
		}
	}
	if publicKey != nil {
		if _, err := s.db.Exec(`UPDATE contact SET public_key = ? WHERE onion_id = ?`, *publicKey, onionID); err != nil {
			return coreerr.New(coreerr.CodePersistence, "failed to update contact public key", err)
		}
	}
	return nil
}

// touchLastViewedLocked sets contact.last_viewed_at = now, the side effect
// messages_with() performs per spec §4.D. Caller must hold s.mu.
func (s *Store) touchLastViewedLocked(onionID string) error {
	_, err := s.db.Exec(`UPDATE contact SET last_viewed_at = ? WHERE onion_id = ?`, time.Now().Unix(), onionID)
	if err != nil {
		return coreerr.New(coreerr.CodePersistence, "failed to update last_viewed_at", err)
	}
	return nil
}

// DeleteContact removes a contact; ON DELETE CASCADE removes its
// messages too (spec §8 property 6).
func (s *Store) DeleteContact(onionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM contact WHERE onion_id = ?`, onionID); err != nil {
		return coreerr.New(coreerr.CodePersistence, "failed to delete contact", err)
	}
	return nil
}

// DeleteAllContacts clears every contact (and, via cascade, every
// message), for the DeleteAllContacts RPC command.
func (s *Store) DeleteAllContacts() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM contact`); err != nil {
		return coreerr.New(coreerr.CodePersistence, "failed to delete all contacts", err)
	}
	return nil
}
